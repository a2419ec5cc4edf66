package routing

import (
	"fmt"
	"net"
)

// Listen opens a UDP socket on port, applying SO_REUSEADDR so a node's
// listening port can be rebound quickly across restarts.
func Listen(port int) (*net.UDPConn, error) {
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("routing: listen on port %d: %w", port, err)
	}

	sc, err := conn.SyscallConn()
	if err == nil {
		_ = setReuseAddr(sc)
	}
	return conn, nil
}
