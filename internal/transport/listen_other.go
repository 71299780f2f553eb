//go:build !linux

package transport

import (
	"context"
	"net"
)

// listenTCP uses the runtime listener; the backlog is the system default.
func listenTCP(ctx context.Context, laddr *net.TCPAddr, _ int, reuse bool) (*net.TCPListener, error) {
	lc := net.ListenConfig{Control: tcpControl(reuse)}
	ln, err := lc.Listen(ctx, "tcp4", laddr.String())
	if err != nil {
		return nil, err
	}
	return ln.(*net.TCPListener), nil
}
