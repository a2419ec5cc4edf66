// Package wire implements the fixed-layout binary framing for link-state
// routing control datagrams.
package wire

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint identifies a node: an IPv4 address plus a UDP port. Ports occupy
// 32 bits on the wire despite fitting in 16, matching the compatibility
// contract of the original protocol.
type Endpoint struct {
	Addr [4]byte
	Port uint32
}

// NewEndpoint builds an Endpoint from a net.IP (must be or map to IPv4) and
// a port number.
func NewEndpoint(ip net.IP, port uint32) (Endpoint, error) {
	v4 := ip.To4()
	if v4 == nil {
		return Endpoint{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrEncodeAddress, ip)
	}
	var ep Endpoint
	copy(ep.Addr[:], v4)
	ep.Port = port
	return ep, nil
}

// String renders the endpoint as "A.B.C.D,P", the textual form used in LSP
// payloads and topology files.
func (e Endpoint) String() string {
	return fmt.Sprintf("%d.%d.%d.%d,%d", e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3], e.Port)
}

// IP returns the endpoint's address as a net.IP.
func (e Endpoint) IP() net.IP {
	return net.IPv4(e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3])
}

// UDPAddr returns the endpoint as a *net.UDPAddr suitable for dialing/sending.
func (e Endpoint) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: e.IP(), Port: int(e.Port)}
}

// IsZero reports whether the endpoint is the zero value.
func (e Endpoint) IsZero() bool {
	return e.Addr == [4]byte{} && e.Port == 0
}

// ParseEndpoint parses the "A.B.C.D,P" textual form used in LSP payloads
// and topology files.
func ParseEndpoint(tok string) (Endpoint, error) {
	parts := strings.SplitN(tok, ",", 2)
	if len(parts) != 2 {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, tok)
	}
	ip := net.ParseIP(parts[0])
	if ip == nil {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, tok)
	}
	port, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, tok)
	}
	return NewEndpoint(ip, uint32(port))
}
