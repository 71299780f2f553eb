package socket

import (
	"context"
	"sync"

	"sockkit/internal/errors"
	"sockkit/internal/notify"
	"sockkit/internal/session"
	"sockkit/internal/transport"
)

// base is the state shared by both facades: the owned handle, the
// strategy, the last registered callback and the closed flag.
//
// The lock is never held while a session is being joined, so a callback
// may call Send on its own socket.
type base struct {
	mode     Mode
	opts     Options
	strategy transport.Strategy
	unbound  error // returned by operations that need a handle

	mu      sync.RWMutex
	handle  *transport.Handle
	closed  bool
	lastCB  ReceiveCallback
	session *session.Session
}

func newBase(mode Mode, opts Options, unbound error) (*base, error) {
	st, err := transport.New(mode, opts.Transport, opts.Logger)
	if err != nil {
		return nil, err
	}
	b := &base{mode: mode, opts: opts, strategy: st, unbound: unbound}
	b.emit(notify.Initializing, 0, "", "")
	return b, nil
}

// Mode returns the socket's transport mode.
func (b *base) Mode() Mode { return b.mode }

func (b *base) emit(t notify.StateType, code int, msg, addr string) {
	b.opts.Notifier.NotifyAll(notify.Event{
		Type:    t,
		Code:    code,
		Message: msg,
		Source:  b.mode.String(),
		Addr:    addr,
	})
}

func (b *base) fail(op string, err error) error {
	b.opts.Metrics.RecordError(op + ": " + err.Error())
	b.emit(notify.Error, 0, op+": "+err.Error(), "")
	return err
}

// install replaces the handle after a successful bind or connect.  The
// previous handle, if any, must already be released by the caller.
func (b *base) install(h *transport.Handle) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		h.Close() //nolint:errcheck
		return ErrClosed
	}
	b.handle = h
	b.mu.Unlock()
	return nil
}

// detach stops any session and releases the current handle, leaving the
// socket open but unbound.
func (b *base) detach() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	h := b.handle
	b.handle = nil
	b.mu.Unlock()

	b.strategy.Stop()
	if h != nil {
		h.Close() //nolint:errcheck
	}
	return nil
}

func (b *base) bind(ctx context.Context, ip string, port int) error {
	local, adjusted, err := localEndpoint(ip, port)
	if err != nil {
		return b.fail("bind", err)
	}
	if adjusted {
		b.opts.Logger.Warn("bind port %d out of range; letting the OS choose", port)
	}
	if err := b.detach(); err != nil {
		return err
	}

	h, err := b.strategy.Bind(ctx, local)
	if err != nil {
		return b.fail("bind", err)
	}
	if err := b.install(h); err != nil {
		return err
	}
	b.emit(notify.Ready, 0, "bound", transport.AddrFrom(h.LocalAddr()).String())
	return nil
}

func (b *base) send(payload []byte, dest AddressInfo) error {
	b.mu.RLock()
	closed, h := b.closed, b.handle
	var (
		n   int
		err error
	)
	if !closed && h != nil {
		n, err = b.strategy.Send(h, payload, dest)
	}
	b.mu.RUnlock()

	switch {
	case closed:
		return ErrClosed
	case h == nil:
		b.opts.Metrics.SendFailed()
		return b.unbound
	case err != nil:
		b.opts.Metrics.SendFailed()
		return b.fail("send", err)
	}
	b.opts.Metrics.Sent(n)
	var to string
	if dest.IP != "" {
		to = dest.String()
	}
	b.emit(notify.DataSent, n, "", to)
	return nil
}

// Receive starts a receive session that invokes cb for every datagram
// or chunk.  It returns once the worker is running.
func (b *base) Receive(cb ReceiveCallback) error {
	if cb == nil {
		return ErrNoCallback
	}
	sess, err := b.startSession(cb)
	if err != nil {
		if errors.Is(err, errors.ErrSessionActive) || err == ErrClosed || err == b.unbound {
			return err
		}
		return b.fail("receive", err)
	}
	b.opts.Metrics.SessionStarted()
	b.emit(notify.Processing, 0, "receiving", "")
	go b.watch(sess)
	return nil
}

// startSession records the new session under the lock.  Events are
// emitted by the caller once the lock is released, so observers may
// query the socket.
func (b *base) startSession(cb ReceiveCallback) (*session.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if b.handle == nil {
		return nil, b.unbound
	}
	sess, err := b.strategy.StartReceive(b.handle, b.deliver(cb), b.opts.BufferSize)
	if err != nil {
		return nil, err
	}
	b.lastCB = cb
	b.session = sess
	return sess, nil
}

func (b *base) deliver(cb ReceiveCallback) ReceiveCallback {
	return func(buf []byte, n int, from AddressInfo) {
		b.opts.Metrics.Received(n)
		b.emit(notify.DataReceived, n, "", from.String())
		cb(buf, n, from)
	}
}

func (b *base) watch(sess *session.Session) {
	<-sess.Done()
	b.opts.Metrics.SessionStopped()
	b.emit(notify.Completed, 0, "receive stopped", "")
}

// SetReceiving(false) stops the active session and waits for its worker
// to exit.  SetReceiving(true) restarts receiving with the last
// registered callback; it is a no-op while a session runs.
func (b *base) SetReceiving(on bool) error {
	b.mu.RLock()
	closed, cb := b.closed, b.lastCB
	b.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !on {
		b.strategy.SetReceiving(false)
		return nil
	}
	if b.strategy.SetReceiving(true) {
		return nil
	}
	if cb == nil {
		return ErrNoCallback
	}
	// A concurrent caller may have restarted the session first.
	if err := b.Receive(cb); err != nil && !errors.Is(err, ErrSessionActive) {
		return err
	}
	return nil
}

// Receiving reports whether a receive session is running.
func (b *base) Receiving() bool {
	return b.strategy.SetReceiving(true)
}

// SessionDone returns a channel closed when the current receive session
// ends, or nil if none was ever started.
func (b *base) SessionDone() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return nil
	}
	return b.session.Done()
}

// LocalAddr reports the bound local address.
func (b *base) LocalAddr() (AddressInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return AddressInfo{}, ErrClosed
	}
	if b.handle == nil {
		return AddressInfo{}, b.unbound
	}
	return transport.AddrFrom(b.handle.LocalAddr()), nil
}

// Close stops and joins any receive session, then releases the
// descriptor.  Closing twice returns ErrClosed.
func (b *base) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	h := b.handle
	b.handle = nil
	b.mu.Unlock()

	b.strategy.Stop()

	var err error
	if h != nil {
		if cerr := h.Close(); cerr != nil && !errors.IsClosed(cerr) {
			err = errors.Wrap("close", b.mode.String(), cerr)
		}
	}
	b.emit(notify.Shutdown, 0, "closed", "")
	return err
}
