package socket

import (
	"context"

	"sockkit/internal/errors"
)

// Factory builds ready-to-use sockets that share one set of options
// (logger, metrics, notifier, timeouts).
type Factory struct {
	opts []Option
}

// NewFactory returns a factory applying opts to every socket it builds.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// UDP returns a unicast socket bound to an OS-chosen port on every
// local address.
func (f *Factory) UDP(ctx context.Context) (*UDPSocket, error) {
	return f.UDPMode(ctx, UDPUnicast, "", 0)
}

// UDPAt returns a unicast socket bound to ip:port.
func (f *Factory) UDPAt(ctx context.Context, ip string, port int) (*UDPSocket, error) {
	return f.UDPMode(ctx, UDPUnicast, ip, port)
}

// UDPMode returns a socket of the given UDP mode bound to ip:port.  For
// multicast, ip is the group to join.
func (f *Factory) UDPMode(ctx context.Context, mode Mode, ip string, port int) (*UDPSocket, error) {
	s, err := NewUDPSocket(mode, f.opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(ctx, ip, port); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// TCPServer returns a server socket listening on ip:port.
func (f *Factory) TCPServer(ctx context.Context, ip string, port int) (*TCPSocket, error) {
	s, err := NewTCPSocket(TCPServer, f.opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(ctx, ip, port); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// TCPClient returns a client socket connected to ip:port.
func (f *Factory) TCPClient(ctx context.Context, ip string, port int) (*TCPSocket, error) {
	s, err := NewTCPSocket(TCPClient, f.opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ctx, ip, port); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Open returns a socket for any mode: bound for UDP modes and the TCP
// server, connected for the TCP client.
func (f *Factory) Open(ctx context.Context, mode Mode, ip string, port int) (Socket, error) {
	switch {
	case mode.IsUDP():
		s, err := f.UDPMode(ctx, mode, ip, port)
		if err != nil {
			return nil, err
		}
		return s, nil
	case mode == TCPServer:
		s, err := f.TCPServer(ctx, ip, port)
		if err != nil {
			return nil, err
		}
		return s, nil
	case mode == TCPClient:
		s, err := f.TCPClient(ctx, ip, port)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.Invalid("mode", mode.String(), "unknown transport mode")
}

var defaultFactory = NewFactory()

// UDP is NewFactory().UDP.
func UDP(ctx context.Context) (*UDPSocket, error) { return defaultFactory.UDP(ctx) }

// UDPAt is NewFactory().UDPAt.
func UDPAt(ctx context.Context, ip string, port int) (*UDPSocket, error) {
	return defaultFactory.UDPAt(ctx, ip, port)
}

// UDPModeAt is NewFactory().UDPMode.
func UDPModeAt(ctx context.Context, mode Mode, ip string, port int) (*UDPSocket, error) {
	return defaultFactory.UDPMode(ctx, mode, ip, port)
}

// Server is NewFactory().TCPServer.
func Server(ctx context.Context, ip string, port int) (*TCPSocket, error) {
	return defaultFactory.TCPServer(ctx, ip, port)
}

// Client is NewFactory().TCPClient.
func Client(ctx context.Context, ip string, port int) (*TCPSocket, error) {
	return defaultFactory.TCPClient(ctx, ip, port)
}
