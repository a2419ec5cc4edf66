// Package neighbor implements the per-node adjacency table and liveness
// protocol described in the routing engine's neighbor liveness contract:
// hello-driven refresh, timeout-based expiry with a first-contact grace
// interval, and a debounced hello-send ticker.
package neighbor

import (
	"log/slog"
	"sort"
	"time"

	"github.com/abramwit/lsrouting/internal/wire"
)

const (
	// DefaultRecvTimeout is how long a neighbor may go unheard before
	// being expired. Should satisfy RecvTimeout >= 3*SendTimeout so a
	// single lost hello does not evict a neighbor.
	DefaultRecvTimeout = 2 * time.Second
	// DefaultSendTimeout is the interval between hello broadcasts.
	DefaultSendTimeout = 500 * time.Millisecond
)

// Config configures a Table's liveness timing. Zero fields take the
// package defaults.
type Config struct {
	RecvTimeout time.Duration
	SendTimeout time.Duration
	Logger      *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.RecvTimeout <= 0 {
		c.RecvTimeout = DefaultRecvTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// entry is a neighbor adjacency with its last-heard timestamp. An entry
// with seen == false is a first contact not yet heard from or inspected
// by Expire, which grants a one-time grace interval before eviction.
type entry struct {
	endpoint  wire.Endpoint
	lastHello time.Time
	seen      bool // lastHello has been set, by OnHello or by Expire's grace-interval logic
}

// Table is the ordered set of direct adjacencies. It is owned exclusively
// by the routing loop; none of its methods start their own goroutines.
type Table struct {
	cfg      Config
	log      *slog.Logger
	recs     map[wire.Endpoint]*entry
	lastTick time.Time
}

// New creates an empty neighbor Table.
func New(cfg Config) *Table {
	cfg.applyDefaults()
	return &Table{
		cfg:  cfg,
		log:  cfg.Logger.WithGroup("neighbor"),
		recs: make(map[wire.Endpoint]*entry),
	}
}

// Seed adds an initial neighbor (from the topology file) without marking
// a topology change — the caller already knows the initial adjacency set.
func (t *Table) Seed(ep wire.Endpoint) {
	if _, ok := t.recs[ep]; ok {
		return
	}
	t.recs[ep] = &entry{endpoint: ep}
}

// OnHello refreshes a known neighbor's last-heard time, or inserts a new
// entry for a previously unknown endpoint. Returns true if this hello
// triggered a topology change (i.e. the endpoint was not already known).
func (t *Table) OnHello(src wire.Endpoint, now time.Time) (topologyChanged bool) {
	if e, ok := t.recs[src]; ok {
		e.lastHello = now
		e.seen = true
		return false
	}
	t.recs[src] = &entry{endpoint: src, lastHello: now, seen: true}
	t.log.Debug("discovered neighbor", "endpoint", src.String())
	return true
}

// Expire removes and returns every neighbor whose last-hello time is
// older than RecvTimeout. An entry that has never been inspected before
// (first contact) has its timestamp initialized to now instead of being
// expired, giving it one grace interval to be heard from again.
func (t *Table) Expire(now time.Time) []wire.Endpoint {
	var expired []wire.Endpoint
	for ep, e := range t.recs {
		if !e.seen {
			e.lastHello = now
			e.seen = true
			continue
		}
		if now.Sub(e.lastHello) > t.cfg.RecvTimeout {
			expired = append(expired, ep)
			delete(t.recs, ep)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].String() < expired[j].String() })
	for _, ep := range expired {
		t.log.Debug("neighbor expired", "endpoint", ep.String())
	}
	return expired
}

// SendHelloTick returns true at most once per SendTimeout, signaling the
// caller to emit a hello datagram to every current neighbor.
func (t *Table) SendHelloTick(now time.Time) bool {
	if t.lastTick.IsZero() || now.Sub(t.lastTick) >= t.cfg.SendTimeout {
		t.lastTick = now
		return true
	}
	return false
}

// Neighbors returns the current set of neighbor endpoints. The Neighbor
// Table never contains duplicate endpoints, so the result has no repeats.
func (t *Table) Neighbors() []wire.Endpoint {
	out := make([]wire.Endpoint, 0, len(t.recs))
	for ep := range t.recs {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Contains reports whether ep is a currently tracked neighbor.
func (t *Table) Contains(ep wire.Endpoint) bool {
	_, ok := t.recs[ep]
	return ok
}

// Len returns the number of tracked neighbors.
func (t *Table) Len() int {
	return len(t.recs)
}
