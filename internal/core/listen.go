package core

import (
	"context"

	"sockkit/socket"
	"sockkit/util"
)

// ListenMode binds a socket and hands every received unit to Handler
// until the context is cancelled.  A TCP server with KeepOpen accepts
// the next peer once one disconnects; otherwise Run returns when the
// first receive session ends.
type ListenMode struct {
	Factory  *socket.Factory
	Mode     socket.Mode
	IP       string
	Port     int
	KeepOpen bool
	Handler  socket.ReceiveCallback
	Logger   *util.Logger

	// Ready, when set, is called with the bound address before the
	// first receive session starts.
	Ready func(socket.AddressInfo)
}

// Run implements Mode.
func (m *ListenMode) Run(ctx context.Context) error {
	s, err := m.Factory.Open(ctx, m.Mode, m.IP, m.Port)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	local, err := s.LocalAddr()
	if err != nil {
		return err
	}
	m.Logger.Verbose("listening on %s (%s)", local, m.Mode)
	if m.Ready != nil {
		m.Ready(local)
	}

	for {
		if err := s.Receive(m.Handler); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.SessionDone():
		}
		if m.Mode != socket.TCPServer || !m.KeepOpen {
			return nil
		}
		m.Logger.Verbose("peer left; waiting for the next connection")
	}
}
