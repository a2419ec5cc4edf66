// Package trace implements the on-path behavior for trace datagrams:
// the node that consumes the TTL, or the ultimate destination,
// acknowledges to the probe's source; every other on-path node
// decrements TTL and forwards toward the destination using the
// current forwarding table.
package trace

import (
	"errors"
	"log/slog"

	"github.com/abramwit/lsrouting/internal/spf"
	"github.com/abramwit/lsrouting/internal/wire"
)

// ErrNoRoute is returned by Handle when the destination has no entry in
// the forwarding table passed to it. The caller drops the datagram.
var ErrNoRoute = errors.New("trace: no forwarding entry for destination")

// Sender abstracts the one outbound capability the handler needs:
// emit a header plus payload to a UDP endpoint. The routing loop
// supplies this backed by its own socket.
type Sender interface {
	Send(dest wire.Endpoint, h wire.Header, payload []byte) error
}

// Handler processes trace datagrams arriving at this node. It never
// mutates shared routing state; it only reads the forwarding table
// supplied to Handle and writes via Sender.
type Handler struct {
	self wire.Endpoint
	log  *slog.Logger
}

// New creates a Handler for the node at self.
func New(self wire.Endpoint, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{self: self, log: logger.WithGroup("trace")}
}

// Handle implements the on-path trace contract. The node that consumes
// the TTL — the one that sees it arrive at zero — is the one that
// acknowledges; every other on-path node decrements and forwards
// silently. A node that is the ultimate destination also acknowledges
// and stops, regardless of remaining TTL. tbl must be the product of a
// completed SPF rebuild; a table mid-rebuild must never be passed here.
func (t *Handler) Handle(h wire.Header, sender Sender, tbl *spf.Table) error {
	if h.TTL == 0 || h.Dest == t.self {
		ack := wire.Header{
			Type:   wire.TypeAck,
			Origin: h.Origin,
			Seq:    h.Seq,
			TTL:    h.TTL,
			Src:    t.self,
			Dest:   h.Src,
		}
		if err := sender.Send(h.Src, ack, nil); err != nil {
			t.log.Debug("failed to send trace ack", "error", err)
		}
		return nil
	}

	entry, ok := tbl.Lookup(h.Dest)
	if !ok {
		t.log.Debug("no route for trace destination", "dest", h.Dest.String())
		return ErrNoRoute
	}

	fwd := h
	fwd.TTL--
	return sender.Send(entry.NextHop, fwd, nil)
}
