// Package routing implements the single-threaded event loop that owns
// the Neighbor Table, LSP Store, and Forwarding Table for one node,
// polling a UDP socket and dispatching datagrams by type.
package routing

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/abramwit/lsrouting/internal/clock"
	"github.com/abramwit/lsrouting/internal/lsdb"
	"github.com/abramwit/lsrouting/internal/neighbor"
	"github.com/abramwit/lsrouting/internal/spf"
	"github.com/abramwit/lsrouting/internal/trace"
	"github.com/abramwit/lsrouting/internal/wire"
)

// DefaultPollInterval bounds how long a single receive attempt may
// block before the loop returns to check its timers. The loop never
// blocks indefinitely: every iteration must reach steps (2)-(5).
const DefaultPollInterval = 100 * time.Millisecond

// DefaultRebuildDebounce is how long the loop waits after the last
// observed topology change before rebuilding the Forwarding Table.
const DefaultRebuildDebounce = 3 * time.Second

// Conn is the subset of net.PacketConn the loop needs. Satisfied by
// *net.UDPConn; an interface so tests can substitute an in-memory pipe.
type Conn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// OnRebuild is called synchronously every time a Forwarding Table
// rebuild completes. Used by cmd/node to print the table and to feed
// an optional debug websocket stream.
type OnRebuild func(tbl *spf.Table)

// Config configures a Loop. Zero fields take the package defaults.
type Config struct {
	Self            wire.Endpoint
	PollInterval    time.Duration
	RebuildDebounce time.Duration
	Neighbor        neighbor.Config
	Logger          *slog.Logger
	OnRebuild       OnRebuild

	// Clock is the loop's time source. Tests substitute one with
	// Clock.SetFunc to drive timers deterministically; a nil Clock
	// gets the real system clock.
	Clock *clock.Clock
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RebuildDebounce <= 0 {
		c.RebuildDebounce = DefaultRebuildDebounce
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// Loop is the single-threaded routing engine for one node. None of its
// unexported state is touched from any goroutine other than the one
// running Run; Loop itself starts no goroutines.
type Loop struct {
	cfg  Config
	log  *slog.Logger
	conn Conn

	neighbors *neighbor.Table
	lsps      *lsdb.Store
	table     *spf.Table
	tracer    *trace.Handler

	seq uint32

	topologyChanged bool
	lastChange      time.Time
	buf             [2048]byte
}

// New creates a Loop bound to conn, which the loop owns for its
// lifetime (Run closes it on return).
func New(cfg Config, conn Conn) *Loop {
	cfg.applyDefaults()
	log := cfg.Logger.WithGroup("routing")
	cfg.Neighbor.Logger = log
	l := &Loop{
		cfg:       cfg,
		log:       log,
		conn:      conn,
		neighbors: neighbor.New(cfg.Neighbor),
		lsps:      lsdb.New(log),
		tracer:    trace.New(cfg.Self, log),
	}
	l.table = spf.Build(cfg.Self, l.graphView())
	return l
}

// SeedNeighbor adds an initial neighbor from the topology file, before
// Run starts, without treating it as a topology change (the initial
// adjacency set is already known).
func (l *Loop) SeedNeighbor(ep wire.Endpoint) {
	l.neighbors.Seed(ep)
}

// Table returns the most recently completed Forwarding Table. Safe to
// call only from within the loop goroutine (e.g. from OnRebuild).
func (l *Loop) Table() *spf.Table {
	return l.table
}

// Run executes the event loop until conn.ReadFrom returns a permanent
// error (including the one produced by Close from another goroutine).
// It never returns nil unless told to stop some other way the caller
// controls by closing conn.
func (l *Loop) Run() error {
	defer l.conn.Close()
	now := l.cfg.Clock.Now()
	l.sendHelloAndLSP(l.neighbors.Neighbors(), now)

	for {
		now = l.cfg.Clock.Now()
		if err := l.conn.SetReadDeadline(now.Add(l.cfg.PollInterval)); err != nil {
			return err
		}

		n, addr, err := l.conn.ReadFrom(l.buf[:])
		if err == nil {
			l.dispatch(l.buf[:n], addr, l.cfg.Clock.Now())
		} else if errors.Is(err, net.ErrClosed) {
			// Shutdown signal closed the connection from another
			// goroutine; this is the expected termination path.
			return nil
		} else if !isTimeout(err) {
			return err
		}

		now = l.cfg.Clock.Now()
		l.tick(now)
	}
}

// tick runs steps (2)-(5) of the loop: hello emission, neighbor expiry,
// topology-change bookkeeping, and debounced SPF rebuild.
func (l *Loop) tick(now time.Time) {
	if l.neighbors.SendHelloTick(now) {
		l.sendHelloAndLSP(l.neighbors.Neighbors(), now)
	}

	if expired := l.neighbors.Expire(now); len(expired) > 0 {
		for _, ep := range expired {
			l.lsps.PurgeEndpoint(ep)
		}
		l.topologyChanged = true
	}

	if l.topologyChanged {
		l.lastChange = now
		l.topologyChanged = false
	}

	if !l.lastChange.IsZero() && now.Sub(l.lastChange) > l.cfg.RebuildDebounce {
		l.rebuild()
		l.lastChange = time.Time{}
	}
}

func (l *Loop) dispatch(data []byte, addr net.Addr, now time.Time) {
	h, payload, err := wire.Decode(data)
	if err != nil {
		l.log.Debug("dropping undecodable datagram", "error", err, "from", addr)
		return
	}

	switch h.Type {
	case wire.TypeHello:
		if l.neighbors.OnHello(h.Src, now) {
			l.topologyChanged = true
		}
	case wire.TypeLSP:
		l.handleLSP(h, payload)
	case wire.TypeTrace:
		if err := l.tracer.Handle(h, l, l.table); err != nil {
			l.log.Debug("trace handler", "error", err)
		}
	case wire.TypeAck:
		// Consumed only by the tracer client; routing ignores it.
	default:
		l.log.Warn("unrecognized packet type on dispatch", "type", h.Type)
	}
}

func (l *Loop) handleLSP(h wire.Header, payload []byte) {
	neighbors := wire.DecodeLSPPayload(payload)
	if !l.lsps.Receive(h.Origin, h.Seq, h.Src, neighbors) {
		return
	}
	l.topologyChanged = true
	l.floodExceptSource(h, payload)
}

// floodExceptSource re-forwards an LSP to every current neighbor other
// than the LSP's originator (the header's Src, which forwarding never
// rewrites), decrementing TTL to bound flood size. The neighbor the
// datagram arrived from is not excluded unless it is the originator.
// A zero TTL suppresses further forwarding.
func (l *Loop) floodExceptSource(h wire.Header, payload []byte) {
	if h.TTL == 0 {
		return
	}
	fwd := h
	fwd.TTL--
	for _, n := range l.neighbors.Neighbors() {
		if n == h.Src {
			continue
		}
		if err := l.Send(n, fwd, payload); err != nil {
			l.log.Warn("failed to flood LSP", "to", n.String(), "error", err)
		}
	}
}

func (l *Loop) rebuild() {
	l.table = spf.Build(l.cfg.Self, l.graphView())
	l.log.Debug("forwarding table rebuilt", "entries", len(l.table.Entries()))
	if l.cfg.OnRebuild != nil {
		l.cfg.OnRebuild(l.table)
	}
}

func (l *Loop) sendHelloAndLSP(neighbors []wire.Endpoint, now time.Time) {
	l.seq++
	payload := wire.EncodeLSPPayload(neighbors)
	for _, n := range neighbors {
		hello := wire.Header{Type: wire.TypeHello, Origin: 0, Seq: 0, TTL: 1, Src: l.cfg.Self, Dest: n}
		if err := l.Send(n, hello, nil); err != nil {
			l.log.Warn("failed to send hello", "to", n.String(), "error", err)
		}
		lsp := wire.Header{Type: wire.TypeLSP, Origin: originID(l.cfg.Self), Seq: l.seq, TTL: 16, Src: l.cfg.Self, Dest: n}
		if err := l.Send(n, lsp, payload); err != nil {
			l.log.Warn("failed to send LSP", "to", n.String(), "error", err)
		}
	}
}

// Send implements trace.Sender and is used directly by the loop for
// hello/LSP emission. dest selects the UDP peer; h.Dest need not equal
// dest (e.g. a trace forward's ultimate destination differs from the
// immediate next hop it is sent to).
func (l *Loop) Send(dest wire.Endpoint, h wire.Header, payload []byte) error {
	buf, err := wire.Encode(h, payload)
	if err != nil {
		return err
	}
	_, err = l.conn.WriteTo(buf, dest.UDPAddr())
	return err
}

// graphView adapts this loop's Neighbor Table and LSP Store into the
// spf.Graph interface, without exposing either structure directly to
// the spf package.
func (l *Loop) graphView() spf.Graph {
	return loopGraph{l}
}

type loopGraph struct{ l *Loop }

func (g loopGraph) SelfNeighbors() []wire.Endpoint { return g.l.neighbors.Neighbors() }
func (g loopGraph) NeighborsOf(ep wire.Endpoint) ([]wire.Endpoint, bool) {
	return g.l.lsps.NeighborsOf(ep)
}

// originID derives the wire protocol's integer origin identifier from
// an endpoint's port, since this daemon runs one node per UDP port on
// a shared loopback/host address in test topologies. Real deployments
// with distinct hosts per node would derive origin ids differently;
// the wire format only requires the id to be stable and unique per
// originator, which the port satisfies here.
func originID(ep wire.Endpoint) uint32 {
	return uint32(ep.UDPAddr().Port)
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
