package transport

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenTCP creates the server descriptor by hand so the listen backlog
// can be set; net.Listen always uses the system maximum.
func listenTCP(ctx context.Context, laddr *net.TCPAddr, backlog int, reuse bool) (*net.TCPListener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	fail := func(op string, err error) (*net.TCPListener, error) {
		unix.Close(fd) //nolint:errcheck
		return nil, os.NewSyscallError(op, err)
	}

	if reuse {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fail("setsockopt", err)
		}
	}

	sa := &unix.SockaddrInet4{Port: laddr.Port}
	if ip := laddr.IP.To4(); ip != nil {
		copy(sa.Addr[:], ip)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fail("listen", err)
	}

	// FileListener dups the descriptor; the original is closed with f.
	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp:%s", laddr))
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, err
	}
	return ln.(*net.TCPListener), nil
}
