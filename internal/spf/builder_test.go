package spf

import (
	"net"
	"testing"

	"github.com/abramwit/lsrouting/internal/wire"
)

func ep(t *testing.T, ip string, port uint32) wire.Endpoint {
	t.Helper()
	e, err := wire.NewEndpoint(net.ParseIP(ip), port)
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	return e
}

// fakeGraph is a hand-populated Graph for tests, independent of
// neighbor.Table and lsdb.Store.
type fakeGraph struct {
	self      []wire.Endpoint
	advertise map[wire.Endpoint][]wire.Endpoint
}

func (g fakeGraph) SelfNeighbors() []wire.Endpoint { return g.self }

func (g fakeGraph) NeighborsOf(ep wire.Endpoint) ([]wire.Endpoint, bool) {
	n, ok := g.advertise[ep]
	return n, ok
}

func TestBuild_SelfEntry(t *testing.T) {
	self := ep(t, "1.0.0.0", 1)
	g := fakeGraph{}
	tbl := Build(self, g)

	e, ok := tbl.Lookup(self)
	if !ok || e.Cost != 0 || e.NextHop != self {
		t.Errorf("self entry = %+v, ok=%v, want cost 0 nexthop self", e, ok)
	}
}

// Five-node line topology: 1 - 2 - 3 - 4 - 5. SPF from node 1 should
// give cost N-1 for node N, always routed via node 2.
func TestBuild_LineTopology(t *testing.T) {
	n1 := ep(t, "1.0.0.0", 1)
	n2 := ep(t, "2.0.0.0", 2)
	n3 := ep(t, "3.0.0.0", 3)
	n4 := ep(t, "4.0.0.0", 4)
	n5 := ep(t, "5.0.0.0", 5)

	g := fakeGraph{
		self: []wire.Endpoint{n2},
		advertise: map[wire.Endpoint][]wire.Endpoint{
			n2: {n1, n3},
			n3: {n2, n4},
			n4: {n3, n5},
			n5: {n4},
		},
	}

	tbl := Build(n1, g)

	cases := []struct {
		dest    wire.Endpoint
		cost    int
		nextHop wire.Endpoint
	}{
		{n1, 0, n1},
		{n2, 1, n2},
		{n3, 2, n2},
		{n4, 3, n2},
		{n5, 4, n2},
	}
	for _, c := range cases {
		e, ok := tbl.Lookup(c.dest)
		if !ok {
			t.Errorf("Lookup(%v) missing", c.dest)
			continue
		}
		if e.Cost != c.cost || e.NextHop != c.nextHop {
			t.Errorf("Lookup(%v) = cost %d nexthop %v, want cost %d nexthop %v",
				c.dest, e.Cost, e.NextHop, c.cost, c.nextHop)
		}
	}
}

// Diamond topology: 1 connects to 2 and 3, both connect to 4. Both
// paths cost 2; the tie-break is decided by whichever neighbor was
// relaxed first, but the result must be deterministic across runs.
func TestBuild_DiamondTopology_Deterministic(t *testing.T) {
	n1 := ep(t, "1.0.0.0", 1)
	n2 := ep(t, "2.0.0.0", 2)
	n3 := ep(t, "3.0.0.0", 3)
	n4 := ep(t, "4.0.0.0", 4)

	g := fakeGraph{
		self: []wire.Endpoint{n2, n3},
		advertise: map[wire.Endpoint][]wire.Endpoint{
			n2: {n1, n4},
			n3: {n1, n4},
			n4: {n2, n3},
		},
	}

	first := Build(n1, g)
	second := Build(n1, g)

	e1, _ := first.Lookup(n4)
	e2, _ := second.Lookup(n4)
	if e1.NextHop != e2.NextHop || e1.Cost != e2.Cost {
		t.Errorf("SPF not deterministic across runs: %+v vs %+v", e1, e2)
	}
	if e1.Cost != 2 {
		t.Errorf("Lookup(n4).Cost = %d, want 2", e1.Cost)
	}
}

func TestBuild_MissingLSPOmitsSubtree(t *testing.T) {
	n1 := ep(t, "1.0.0.0", 1)
	n2 := ep(t, "2.0.0.0", 2)
	n3 := ep(t, "3.0.0.0", 3)

	g := fakeGraph{
		self:      []wire.Endpoint{n2},
		advertise: map[wire.Endpoint][]wire.Endpoint{}, // no LSP learned for n2 yet
	}
	_ = n3

	tbl := Build(n1, g)
	if _, ok := tbl.Lookup(n2); !ok {
		t.Error("n2 should still get a direct-neighbor entry from SelfNeighbors")
	}
	if len(tbl.Entries()) != 2 {
		t.Errorf("Entries() = %v, want only self and n2 (n2's subtree omitted)", tbl.Entries())
	}
}

func TestBuild_DisconnectedNodeAbsent(t *testing.T) {
	n1 := ep(t, "1.0.0.0", 1)
	n9 := ep(t, "9.0.0.0", 9)

	g := fakeGraph{self: nil, advertise: map[wire.Endpoint][]wire.Endpoint{}}
	tbl := Build(n1, g)

	if _, ok := tbl.Lookup(n9); ok {
		t.Error("unreachable node should not appear in the forwarding table")
	}
	if len(tbl.Entries()) != 1 {
		t.Errorf("Entries() = %v, want only self", tbl.Entries())
	}
}
