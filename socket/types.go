// Package socket is the caller-facing API of sockkit: UDP and TCP socket
// facades that own one OS descriptor each, validate their inputs and
// delegate the mode-specific mechanics to a transport strategy.
//
// Sockets are built through a Factory (or the package-level shortcuts)
// and report received data through a ReceiveCallback running on a
// dedicated goroutine per receive session.
package socket

import (
	"sockkit/internal/errors"
	"sockkit/internal/transport"
)

// Mode is the transport mode of a socket.
type Mode = transport.Mode

// Transport modes.
const (
	UDPUnicast   = transport.UDPUnicast
	UDPMulticast = transport.UDPMulticast
	UDPBroadcast = transport.UDPBroadcast
	TCPServer    = transport.TCPServer
	TCPClient    = transport.TCPClient
)

// AddressInfo is an IPv4 endpoint.
type AddressInfo = transport.AddressInfo

// ReceiveCallback receives one datagram or stream chunk.  buf is owned
// by the callee.  The callback must not call SetReceiving(false) or
// Close on the socket that invoked it.
type ReceiveCallback = transport.ReceiveCallback

// ParseMode accepts unicast, multicast, broadcast, server or client.
func ParseMode(s string) (Mode, error) { return transport.ParseMode(s) }

// Errors returned by socket operations; compare with errors.Is.
var (
	ErrClosed          = errors.ErrClosed
	ErrNotBound        = errors.ErrNotBound
	ErrNotConnected    = errors.ErrNotConnected
	ErrUnsupported     = errors.ErrUnsupported
	ErrSessionActive   = errors.ErrSessionActive
	ErrNoCallback      = errors.ErrNoCallback
	ErrBroadcastDenied = errors.ErrBroadcastDenied
)

// Socket is the behaviour shared by UDP and TCP sockets.
type Socket interface {
	Mode() Mode
	Receive(cb ReceiveCallback) error
	SetReceiving(on bool) error
	Receiving() bool
	SessionDone() <-chan struct{}
	LocalAddr() (AddressInfo, error)
	Close() error
}

var (
	_ Socket = (*UDPSocket)(nil)
	_ Socket = (*TCPSocket)(nil)
)
