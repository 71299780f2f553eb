package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"sockkit/internal/errors"
	"sockkit/internal/session"
	"sockkit/util"
)

// ── Server ───────────────────────────────────────────────────────────

// ServerStrategy binds and listens, then accepts exactly one peer per
// receive session and reads from it until the peer closes.  The
// accepted connection is owned by the strategy.
type ServerStrategy struct {
	receiver
	cfg Config

	peerMu sync.Mutex
	peer   *net.TCPConn
}

// NewServer returns a TCP server strategy.
func NewServer(cfg Config, logger *util.Logger) *ServerStrategy {
	return &ServerStrategy{
		receiver: receiver{logger: logger, readTimeout: cfg.ReadTimeout},
		cfg:      cfg,
	}
}

// Mode implements Strategy.
func (s *ServerStrategy) Mode() Mode { return TCPServer }

// Bind creates, binds and listens on local.  A failure at any step
// leaves no descriptor behind.
func (s *ServerStrategy) Bind(ctx context.Context, local AddressInfo) (*Handle, error) {
	laddr, err := local.tcpAddr()
	if err != nil {
		return nil, err
	}
	ln, err := listenTCP(ctx, laddr, s.cfg.backlog(), s.cfg.ReuseAddr)
	if err != nil {
		s.logger.Error("tcp listen on %s failed: %v", local, err)
		return nil, errors.Wrap("listen", local.String(), err)
	}
	s.logger.Verbose("listening on %s (tcp, backlog %d)", ln.Addr(), s.cfg.backlog())
	return &Handle{Listener: ln}, nil
}

// Connect implements Strategy; servers do not initiate connections.
func (s *ServerStrategy) Connect(context.Context, AddressInfo) (*Handle, error) {
	s.logger.Warn("tcp server does not connect")
	return nil, errors.ErrUnsupported
}

// Send writes to the accepted peer.  It fails until a peer has been
// accepted by a receive session.
func (s *ServerStrategy) Send(h *Handle, payload []byte, _ AddressInfo) (int, error) {
	if !h.Valid() || h.Listener == nil {
		return 0, errors.ErrInvalidHandle
	}
	peer := s.currentPeer()
	if peer == nil {
		return 0, errors.ErrNotConnected
	}
	n, err := peer.Write(payload)
	if err != nil {
		s.logger.Warn("tcp send to %s failed: %v", peer.RemoteAddr(), err)
		return n, errors.Wrap("send", peer.RemoteAddr().String(), err)
	}
	return n, nil
}

// Peer returns the address of the accepted connection, if any.
func (s *ServerStrategy) Peer() (AddressInfo, bool) {
	peer := s.currentPeer()
	if peer == nil {
		return AddressInfo{}, false
	}
	return AddrFrom(peer.RemoteAddr()), true
}

func (s *ServerStrategy) currentPeer() *net.TCPConn {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	return s.peer
}

// setPeer installs c as the accepted connection, closing any previous one.
func (s *ServerStrategy) setPeer(c *net.TCPConn) {
	s.peerMu.Lock()
	old := s.peer
	s.peer = c
	s.peerMu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}

// dropPeer closes c if it is still the current peer.
func (s *ServerStrategy) dropPeer(c *net.TCPConn) {
	s.peerMu.Lock()
	if s.peer == c {
		s.peer = nil
	}
	s.peerMu.Unlock()
	c.Close()
}

// StartReceive spawns a worker that accepts one connection and then
// reads from it until EOF, a terminal error or a stop.
func (s *ServerStrategy) StartReceive(h *Handle, cb ReceiveCallback, bufSize int) (*session.Session, error) {
	if !h.Valid() || h.Listener == nil {
		return nil, errors.ErrInvalidHandle
	}
	if cb == nil {
		return nil, errors.ErrNoCallback
	}
	ln := h.Listener
	if err := ln.SetDeadline(time.Time{}); err != nil {
		return nil, errors.Wrap("accept", ln.Addr().String(), err)
	}

	return s.begin(func(ctx context.Context) {
		peer, err := s.accept(ctx, ln)
		if err != nil || peer == nil {
			return
		}
		from := AddrFrom(peer.RemoteAddr())
		s.logger.Verbose("accepted connection from %s", from)

		if s.readLoop(ctx, peer, cb, bufSize, from) {
			s.dropPeer(peer)
			s.logger.Verbose("connection from %s closed", from)
		}
	}, func() {
		ln.SetDeadline(aLongTimeAgo) //nolint:errcheck
		if p := s.currentPeer(); p != nil {
			p.SetReadDeadline(aLongTimeAgo) //nolint:errcheck
		}
	})
}

func (s *ServerStrategy) accept(ctx context.Context, ln *net.TCPListener) (*net.TCPConn, error) {
	for {
		c, err := ln.AcceptTCP()
		if err == nil {
			if ctx.Err() != nil {
				c.Close()
				return nil, ctx.Err()
			}
			s.setPeer(c)
			// The stop hook may already have fired before the peer was
			// installed; the session's re-fire covers that window.
			if err := c.SetReadDeadline(s.deadline()); err != nil {
				s.dropPeer(c)
				return nil, err
			}
			return c, nil
		}
		switch classifyRead(ctx, err) {
		case readRetry:
			continue
		case readStop:
			return nil, err
		default:
			s.logger.Error("tcp accept on %s failed: %v", ln.Addr(), err)
			return nil, err
		}
	}
}

// Stop implements Strategy: the session is joined and the accepted
// connection released.
func (s *ServerStrategy) Stop() {
	s.halt()
	s.peerMu.Lock()
	peer := s.peer
	s.peer = nil
	s.peerMu.Unlock()
	if peer != nil {
		peer.Close()
	}
}

// ── Client ───────────────────────────────────────────────────────────

// ClientStrategy dials a remote endpoint and reads from the connection
// continuously once a receive session is started.
type ClientStrategy struct {
	receiver
	cfg Config
}

// NewClient returns a TCP client strategy.
func NewClient(cfg Config, logger *util.Logger) *ClientStrategy {
	return &ClientStrategy{
		receiver: receiver{logger: logger, readTimeout: cfg.ReadTimeout},
		cfg:      cfg,
	}
}

// Mode implements Strategy.
func (c *ClientStrategy) Mode() Mode { return TCPClient }

// Bind implements Strategy; clients neither bind nor listen.
func (c *ClientStrategy) Bind(context.Context, AddressInfo) (*Handle, error) {
	c.logger.Warn("tcp client does not bind or listen")
	return nil, errors.ErrUnsupported
}

// Connect dials remote, optionally from a fixed source port.
func (c *ClientStrategy) Connect(ctx context.Context, remote AddressInfo) (*Handle, error) {
	raddr, err := remote.tcpAddr()
	if err != nil {
		return nil, err
	}
	if raddr.IP == nil {
		return nil, errors.Invalid("ip", remote.IP, "remote address is required")
	}

	d := net.Dialer{
		Timeout: c.cfg.ConnectTimeout,
		Control: tcpControl(c.cfg.ReuseAddr),
	}
	if c.cfg.LocalPort > 0 {
		d.LocalAddr = &net.TCPAddr{Port: c.cfg.LocalPort}
	}

	conn, err := d.DialContext(ctx, "tcp4", raddr.String())
	if err != nil {
		c.logger.Error("tcp connect to %s failed: %v", remote, err)
		return nil, errors.Wrap("connect", remote.String(), err)
	}
	c.logger.Verbose("connected to %s", conn.RemoteAddr())
	return &Handle{Stream: conn.(*net.TCPConn)}, nil
}

// Send writes payload on the connection.
func (c *ClientStrategy) Send(h *Handle, payload []byte, _ AddressInfo) (int, error) {
	if !h.Valid() || h.Stream == nil {
		return 0, errors.ErrNotConnected
	}
	n, err := h.Stream.Write(payload)
	if err != nil {
		c.logger.Warn("tcp send to %s failed: %v", h.Stream.RemoteAddr(), err)
		return n, errors.Wrap("send", h.Stream.RemoteAddr().String(), err)
	}
	return n, nil
}

// StartReceive spawns the stream receive loop.  Every chunk carries the
// connected remote address as its sender.
func (c *ClientStrategy) StartReceive(h *Handle, cb ReceiveCallback, bufSize int) (*session.Session, error) {
	if !h.Valid() || h.Stream == nil {
		return nil, errors.ErrNotConnected
	}
	if cb == nil {
		return nil, errors.ErrNoCallback
	}
	conn := h.Stream
	if err := conn.SetReadDeadline(c.deadline()); err != nil {
		return nil, errors.Wrap("recv", conn.RemoteAddr().String(), err)
	}
	from := AddrFrom(conn.RemoteAddr())

	return c.begin(func(ctx context.Context) {
		if c.readLoop(ctx, conn, cb, bufSize, from) {
			c.logger.Verbose("connection to %s closed by peer", from)
		}
	}, func() {
		conn.SetReadDeadline(aLongTimeAgo) //nolint:errcheck
	})
}

// Stop implements Strategy.  The connection belongs to the facade.
func (c *ClientStrategy) Stop() { c.halt() }

// ── Shared ───────────────────────────────────────────────────────────

// readLoop reads chunks from conn until the peer closes, a terminal
// error occurs or ctx is cancelled.  It reports whether the connection
// is finished (peer gone or failed) as opposed to merely stopped.
func (r *receiver) readLoop(ctx context.Context, conn *net.TCPConn, cb ReceiveCallback, bufSize int, from AddressInfo) bool {
	bp := util.GetBuf(bufSize)
	defer util.PutBuf(bp)
	buf := *bp

	for ctx.Err() == nil {
		if r.readTimeout > 0 {
			conn.SetReadDeadline(r.deadline()) //nolint:errcheck
		}
		n, err := conn.Read(buf)
		if n > 0 {
			deliver(cb, buf, n, from)
		}
		if err == nil {
			continue
		}
		switch classifyRead(ctx, err) {
		case readRetry:
			continue
		case readStop:
			// Cancelled sessions leave the connection usable.
			return ctx.Err() == nil
		default:
			r.logger.Error("tcp receive from %s failed: %v", from, err)
			return true
		}
	}
	return false
}
