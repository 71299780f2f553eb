package socket

import (
	"context"

	"sockkit/internal/errors"
)

// UDPSocket is a datagram socket in unicast, multicast or broadcast mode.
type UDPSocket struct {
	*base
}

// NewUDPSocket returns an unbound UDP socket in the given mode.  Call
// Bind before sending or receiving.
func NewUDPSocket(mode Mode, opts ...Option) (*UDPSocket, error) {
	if !mode.IsUDP() {
		return nil, errors.Invalid("mode", mode.String(), "not a UDP mode")
	}
	b, err := newBase(mode, buildOptions(opts), ErrNotBound)
	if err != nil {
		return nil, err
	}
	return &UDPSocket{base: b}, nil
}

// Bind creates the descriptor on ip:port, replacing any previous one.
// An empty ip binds every local address; port 0 lets the OS choose.
// In multicast mode ip is the group to join and the socket binds
// 0.0.0.0:port.
func (u *UDPSocket) Bind(ctx context.Context, ip string, port int) error {
	return u.bind(ctx, ip, port)
}

// Send writes msg as one datagram to ip:port.
func (u *UDPSocket) Send(msg []byte, ip string, port int) error {
	if err := ValidateMessage(msg); err != nil {
		u.opts.Metrics.SendFailed()
		return err
	}
	if err := ValidateDestination(ip, port); err != nil {
		u.opts.Metrics.SendFailed()
		return err
	}
	return u.send(msg, AddressInfo{IP: ip, Port: uint16(port)})
}
