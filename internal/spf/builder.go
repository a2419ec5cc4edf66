// Package spf computes the Forwarding Table from the local node's
// directly observed topology (Neighbor Table) and the link-state
// database (LSP Store), using a priority-queue-driven relaxation over
// unit-cost edges.
package spf

import (
	"sort"

	"github.com/abramwit/lsrouting/internal/wire"
)

// Entry is one Forwarding Table row: a destination, the next hop
// toward it, its cost in hops, and whether SPF has finalized it this
// rebuild. InSPF transitions false→true exactly once per rebuild.
type Entry struct {
	Dest    wire.Endpoint
	NextHop wire.Endpoint
	Cost    int
	InSPF   bool
}

// Table is the Forwarding Table: destination endpoint to Entry.
type Table struct {
	self wire.Endpoint
	recs map[wire.Endpoint]*Entry
}

// Lookup returns the entry for dest, if present.
func (t *Table) Lookup(dest wire.Endpoint) (Entry, bool) {
	e, ok := t.recs[dest]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns all entries sorted by destination, for deterministic
// iteration (printing, testing).
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.recs))
	for _, e := range t.recs {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dest.String() < out[j].Dest.String() })
	return out
}

// Graph abstracts the two data sources SPF reads: this node's own
// directly observed neighbors, and other nodes' advertised neighbors as
// learned via flooded LSPs. Decoupling SPF from neighbor.Table and
// lsdb.Store directly keeps the algorithm testable without either.
type Graph interface {
	// SelfNeighbors returns this node's direct neighbors.
	SelfNeighbors() []wire.Endpoint
	// NeighborsOf returns the neighbor list advertised by ep in its
	// most recent LSP, or ok=false if no LSP has been learned for ep
	// yet. Build omits that subtree from this rebuild in that case.
	NeighborsOf(ep wire.Endpoint) (neighbors []wire.Endpoint, ok bool)
}

// Build runs the SPF relaxation and returns a fully populated
// Forwarding Table. self is this node's own endpoint, which always
// ends up with cost 0 and next-hop itself.
func Build(self wire.Endpoint, g Graph) *Table {
	t := &Table{self: self, recs: make(map[wire.Endpoint]*Entry)}
	pq := NewPriorityQueue()

	selfEntry := &Entry{Dest: self, NextHop: self, Cost: 0}
	t.recs[self] = selfEntry
	pq.Insert(selfEntry)

	for !pq.IsEmpty() {
		popped := pq.PopMin()
		if popped.InSPF {
			continue
		}
		popped.InSPF = true

		var neighbors []wire.Endpoint
		if popped.Dest == self {
			neighbors = g.SelfNeighbors()
		} else {
			var ok bool
			neighbors, ok = g.NeighborsOf(popped.Dest)
			if !ok {
				// Missing LSP: this subtree is omitted from this rebuild.
				continue
			}
		}

		for _, n := range neighbors {
			candidateCost := popped.Cost + 1

			nextHop := n
			if popped.Dest != self {
				nextHop = popped.NextHop
			}

			entry, exists := t.recs[n]
			if !exists {
				entry = &Entry{Dest: n, NextHop: nextHop, Cost: candidateCost}
				t.recs[n] = entry
			} else if entry.Cost > candidateCost {
				entry.Cost = candidateCost
				entry.NextHop = nextHop
			}
			pq.Insert(entry)
		}
	}

	return t
}
