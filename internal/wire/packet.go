package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PacketType is the single-character type tag carried in the header.
type PacketType byte

const (
	TypeLSP   PacketType = 'L'
	TypeHello PacketType = 'H'
	TypeAck   PacketType = 'A'
	TypeTrace PacketType = 'T'
)

// HeaderSize is the fixed wire size of a Header, in octets.
const HeaderSize = 29

var (
	ErrEncodeAddress   = errors.New("wire: address does not fit 32 bits")
	ErrEncodeType      = errors.New("wire: unrecognized packet type")
	ErrDecodeTooShort  = errors.New("wire: datagram shorter than header")
	ErrDecodeType      = errors.New("wire: unrecognized packet type")
	ErrInvalidEndpoint = errors.New("wire: invalid endpoint token")
)

// Header is the fixed 29-octet record prefixing every control datagram.
// Field order and widths are part of the wire compatibility contract and
// MUST NOT change: type(1) + origin(4) + seq(4) + ttl(4) + src addr(4) +
// src port(4) + dest addr(4) + dest port(4), all big-endian.
type Header struct {
	Type   PacketType
	Origin uint32
	Seq    uint32
	TTL    uint32
	Src    Endpoint
	Dest   Endpoint
}

func validType(t PacketType) bool {
	switch t {
	case TypeLSP, TypeHello, TypeAck, TypeTrace:
		return true
	default:
		return false
	}
}

// Encode writes the header followed by payload into a fresh byte slice.
// The codec never interprets payload; LSP payloads are parsed separately
// by DecodeLSPPayload.
func Encode(h Header, payload []byte) ([]byte, error) {
	if !validType(h.Type) {
		return nil, fmt.Errorf("%w: %q", ErrEncodeType, h.Type)
	}
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = byte(h.Type)
	binary.BigEndian.PutUint32(buf[1:5], h.Origin)
	binary.BigEndian.PutUint32(buf[5:9], h.Seq)
	binary.BigEndian.PutUint32(buf[9:13], h.TTL)
	copy(buf[13:17], h.Src.Addr[:])
	binary.BigEndian.PutUint32(buf[17:21], h.Src.Port)
	copy(buf[21:25], h.Dest.Addr[:])
	binary.BigEndian.PutUint32(buf[25:29], h.Dest.Port)
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Decode reads the fixed header from the front of data and returns the
// remaining bytes as an opaque payload. The payload is not interpreted.
func Decode(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: got %d bytes", ErrDecodeTooShort, len(data))
	}
	t := PacketType(data[0])
	if !validType(t) {
		return Header{}, nil, fmt.Errorf("%w: %q", ErrDecodeType, t)
	}
	var h Header
	h.Type = t
	h.Origin = binary.BigEndian.Uint32(data[1:5])
	h.Seq = binary.BigEndian.Uint32(data[5:9])
	h.TTL = binary.BigEndian.Uint32(data[9:13])
	copy(h.Src.Addr[:], data[13:17])
	h.Src.Port = binary.BigEndian.Uint32(data[17:21])
	copy(h.Dest.Addr[:], data[21:25])
	h.Dest.Port = binary.BigEndian.Uint32(data[25:29])
	payload := data[HeaderSize:]
	return h, payload, nil
}
