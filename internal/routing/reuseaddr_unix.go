//go:build unix

package routing

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr sets SO_REUSEADDR on the UDP listener's file descriptor
// so a node's port can be rebound quickly across restarts (common
// during repeated test runs on the same host). Best-effort: the caller
// ignores a failure here, and the socket is used regardless.
func setReuseAddr(rc syscall.RawConn) error {
	var sockErr error
	err := rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
