package socket

import (
	"context"

	"sockkit/internal/errors"
	"sockkit/internal/notify"
	"sockkit/internal/transport"
)

// TCPSocket is a stream socket acting as a server (bind, accept one peer
// per receive session) or a client (connect).
type TCPSocket struct {
	*base
}

// NewTCPSocket returns a TCP socket in server or client mode with no
// descriptor yet.
func NewTCPSocket(mode Mode, opts ...Option) (*TCPSocket, error) {
	if !mode.IsTCP() {
		return nil, errors.Invalid("mode", mode.String(), "not a TCP mode")
	}
	unbound := ErrNotBound
	if mode == TCPClient {
		unbound = ErrNotConnected
	}
	b, err := newBase(mode, buildOptions(opts), unbound)
	if err != nil {
		return nil, err
	}
	return &TCPSocket{base: b}, nil
}

// Bind listens on ip:port.  Only servers bind.
func (t *TCPSocket) Bind(ctx context.Context, ip string, port int) error {
	if t.mode != TCPServer {
		return t.fail("bind", ErrUnsupported)
	}
	return t.bind(ctx, ip, port)
}

// Connect dials ip:port, closing any previous connection first.  Only
// clients connect.
func (t *TCPSocket) Connect(ctx context.Context, ip string, port int) error {
	if t.mode != TCPClient {
		return t.fail("connect", ErrUnsupported)
	}
	if err := ValidateDestination(ip, port); err != nil {
		return t.fail("connect", err)
	}

	hadPeer := t.connected()
	if err := t.detach(); err != nil {
		return err
	}
	if hadPeer {
		t.emit(notify.Disconnected, 0, "replaced by a new connection", "")
	}

	h, err := t.strategy.Connect(ctx, AddressInfo{IP: ip, Port: uint16(port)})
	if err != nil {
		return t.fail("connect", err)
	}
	if err := t.install(h); err != nil {
		return err
	}
	t.opts.Metrics.Connected()
	t.emit(notify.Connected, 0, "", transport.AddrFrom(h.Stream.RemoteAddr()).String())
	return nil
}

func (t *TCPSocket) connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handle != nil
}

// Send writes msg to the connected peer: the remote endpoint for a
// client, the accepted connection for a server.
func (t *TCPSocket) Send(msg []byte) error {
	if err := ValidateMessage(msg); err != nil {
		t.opts.Metrics.SendFailed()
		return err
	}
	return t.send(msg, AddressInfo{})
}

// RemoteAddr reports the peer: the connected endpoint of a client or
// the accepted connection of a server.
func (t *TCPSocket) RemoteAddr() (AddressInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return AddressInfo{}, ErrClosed
	}
	if t.handle == nil {
		return AddressInfo{}, t.unbound
	}
	if t.handle.Stream != nil {
		return transport.AddrFrom(t.handle.Stream.RemoteAddr()), nil
	}
	if p, ok := t.strategy.(interface{ Peer() (AddressInfo, bool) }); ok {
		if addr, ok := p.Peer(); ok {
			return addr, nil
		}
	}
	return AddressInfo{}, ErrNotConnected
}
