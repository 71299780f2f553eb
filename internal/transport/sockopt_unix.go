//go:build unix

package transport

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// udpControl configures a datagram descriptor before bind.  The Go
// runtime enables SO_BROADCAST on every UDP socket; only the broadcast
// strategy keeps it.
func udpControl(broadcast, reuse bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = setUDPOptions(int(fd), broadcast, reuse)
		})
		if err != nil {
			return err
		}
		return serr
	}
}

func setUDPOptions(fd int, broadcast, reuse bool) error {
	v := 0
	if broadcast {
		v = 1
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, v); err != nil {
		return os.NewSyscallError("setsockopt SO_BROADCAST", err)
	}
	if reuse {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return os.NewSyscallError("setsockopt SO_REUSEADDR", err)
		}
	}
	return restrictMulticast(fd)
}

// tcpControl configures a stream descriptor before bind.
func tcpControl(reuse bool) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if !reuse {
			return nil
		}
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		})
		if err != nil {
			return err
		}
		if serr != nil {
			return os.NewSyscallError("setsockopt SO_REUSEADDR", serr)
		}
		return nil
	}
}
