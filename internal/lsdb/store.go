// Package lsdb implements the link-state database: the mapping from
// origin identifier to the most recent LSP observed from that origin,
// and the sequence-based freshness rule that drives reliable flooding.
package lsdb

import (
	"log/slog"
	"sort"

	"github.com/abramwit/lsrouting/internal/wire"
)

// record is the most-recent LSP retained for one origin.
type record struct {
	originEP  wire.Endpoint
	seq       uint32
	neighbors []wire.Endpoint
}

// Store holds at most one LSP per origin identifier. It is owned
// exclusively by the routing loop as a single-writer structure
// consulted on every received datagram, much like a packet
// deduplicator, but generalized from "seen before" to "fresher than
// what's stored". A secondary index from endpoint to origin id lets
// the SPF builder look up a graph node's edges by its stable endpoint
// identity, since the wire protocol identifies origins by integer but
// the graph is built over endpoints.
type Store struct {
	log        *slog.Logger
	recs       map[uint32]*record
	epToOrigin map[wire.Endpoint]uint32
}

// New creates an empty LSP Store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		log:        logger.WithGroup("lsdb"),
		recs:       make(map[uint32]*record),
		epToOrigin: make(map[wire.Endpoint]uint32),
	}
}

// Receive applies the sequence-number freshness rule to an incoming LSP.
// It returns floodworthy=true when the LSP was newly stored or replaced
// an older one — the caller must then re-forward it to its neighbors
// and signal a topology change. A
// sequence number equal to (not greater than) what's stored is a drop,
// not a replace. originEP is the LSP's own advertised endpoint (the
// header's source address), used as the graph-node identity for SPF.
func (s *Store) Receive(origin, seq uint32, originEP wire.Endpoint, neighbors []wire.Endpoint) (floodworthy bool) {
	cur, ok := s.recs[origin]
	if !ok {
		s.recs[origin] = &record{originEP: originEP, seq: seq, neighbors: neighbors}
		s.epToOrigin[originEP] = origin
		s.log.Debug("stored new LSP", "origin", origin, "seq", seq)
		return true
	}
	if seq > cur.seq {
		cur.seq = seq
		cur.neighbors = neighbors
		cur.originEP = originEP
		s.epToOrigin[originEP] = origin
		s.log.Debug("replaced LSP", "origin", origin, "seq", seq)
		return true
	}
	return false
}

// Purge removes the LSP for an origin, used when the corresponding
// neighbor is evicted from the Neighbor Table so its edges drop out of
// the graph view.
func (s *Store) Purge(origin uint32) {
	if r, ok := s.recs[origin]; ok {
		delete(s.epToOrigin, r.originEP)
		delete(s.recs, origin)
	}
}

// PurgeEndpoint removes whichever origin is currently advertising from
// ep, if any. Used by the routing loop when ep is evicted from the
// Neighbor Table.
func (s *Store) PurgeEndpoint(ep wire.Endpoint) {
	if origin, ok := s.epToOrigin[ep]; ok {
		s.Purge(origin)
	}
}

// Neighbors returns the neighbor list advertised by the LSP currently
// stored for origin, or (nil, false) if no LSP has been learned for it.
func (s *Store) Neighbors(origin uint32) ([]wire.Endpoint, bool) {
	r, ok := s.recs[origin]
	if !ok {
		return nil, false
	}
	return r.neighbors, true
}

// NeighborsOf returns the neighbor list advertised by the endpoint ep,
// used by the SPF builder when relaxing edges out of a non-self node.
func (s *Store) NeighborsOf(ep wire.Endpoint) ([]wire.Endpoint, bool) {
	origin, ok := s.epToOrigin[ep]
	if !ok {
		return nil, false
	}
	return s.Neighbors(origin)
}

// Seq returns the sequence number currently stored for origin, or
// (0, false) if none is stored.
func (s *Store) Seq(origin uint32) (uint32, bool) {
	r, ok := s.recs[origin]
	if !ok {
		return 0, false
	}
	return r.seq, true
}

// Origins returns every origin identifier currently in the store, in
// ascending order for deterministic iteration.
func (s *Store) Origins() []uint32 {
	out := make([]uint32, 0, len(s.recs))
	for o := range s.recs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of origins currently tracked.
func (s *Store) Len() int {
	return len(s.recs)
}
