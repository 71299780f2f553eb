package core

import (
	"context"
	"time"

	"sockkit/socket"
	"sockkit/util"
)

// SendMode sends Message to Remote and then keeps receiving replies
// for Wait.  UDP sockets bind LocalIP:LocalPort first; a multicast
// sender binds the destination group instead.  A TCP client connects
// to Remote; without a message it receives until the peer leaves or
// the context is cancelled.
type SendMode struct {
	Factory    *socket.Factory
	Mode       socket.Mode
	LocalIP    string
	LocalPort  int
	RemoteIP   string
	RemotePort int
	Message    []byte
	Wait       time.Duration
	Handler    socket.ReceiveCallback
	Logger     *util.Logger
}

// Run implements Mode.
func (m *SendMode) Run(ctx context.Context) error {
	if m.Mode == socket.TCPClient {
		return m.runClient(ctx)
	}
	return m.runUDP(ctx)
}

func (m *SendMode) runUDP(ctx context.Context) error {
	ip := m.LocalIP
	if m.Mode == socket.UDPMulticast {
		ip = m.RemoteIP
	}
	s, err := m.Factory.UDPMode(ctx, m.Mode, ip, m.LocalPort)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if m.Wait > 0 && m.Handler != nil {
		if err := s.Receive(m.Handler); err != nil {
			return err
		}
	}
	if err := s.Send(m.Message, m.RemoteIP, m.RemotePort); err != nil {
		return err
	}
	m.Logger.Verbose("sent %d bytes to %s", len(m.Message), util.FormatAddr(m.RemoteIP, m.RemotePort))
	return m.wait(ctx, s)
}

func (m *SendMode) runClient(ctx context.Context) error {
	s, err := m.Factory.TCPClient(ctx, m.RemoteIP, m.RemotePort)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck
	m.Logger.Verbose("connected to %s", util.FormatAddr(m.RemoteIP, m.RemotePort))

	if m.Handler != nil {
		if err := s.Receive(m.Handler); err != nil {
			return err
		}
	}
	if len(m.Message) == 0 {
		select {
		case <-ctx.Done():
		case <-s.SessionDone():
		}
		return nil
	}
	if err := s.Send(m.Message); err != nil {
		return err
	}
	m.Logger.Verbose("sent %d bytes", len(m.Message))
	return m.wait(ctx, s)
}

func (m *SendMode) wait(ctx context.Context, s socket.Socket) error {
	if m.Wait <= 0 {
		return nil
	}
	timer := time.NewTimer(m.Wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-s.SessionDone():
	}
	return nil
}
