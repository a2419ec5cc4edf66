//go:build !unix

package routing

import "syscall"

// setReuseAddr is a no-op on platforms without SO_REUSEADDR support via
// golang.org/x/sys/unix.
func setReuseAddr(rc syscall.RawConn) error {
	return nil
}
