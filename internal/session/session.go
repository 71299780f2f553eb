// Package session represents the lifetime of one background receive
// loop, from start to stop.
//
// A Session owns exactly one worker goroutine.  Stopping a session is
// cooperative: the worker's context is cancelled and an interrupt hook
// unblocks whatever OS call the worker is parked in, then Stop waits
// until the worker has observably returned.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// interruptEvery is how often Stop re-fires the interrupt hook while
// waiting.  A worker may re-arm its read deadline after the first
// interrupt lands, so a single shot is not enough.
const interruptEvery = 25 * time.Millisecond

// Session is a running (or finished) receive loop.
type Session struct {
	ID      uuid.UUID
	Started time.Time

	cancel    context.CancelFunc
	interrupt func()
	done      chan struct{}
	running   atomic.Bool
}

// Start spawns run on its own goroutine and returns immediately.  The
// context passed to run is cancelled by Stop.  interrupt, if non-nil,
// must make a blocked receive/accept return promptly (typically by
// moving the descriptor's deadline to now).
func Start(run func(ctx context.Context), interrupt func()) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.New(),
		Started:   time.Now(),
		cancel:    cancel,
		interrupt: interrupt,
		done:      make(chan struct{}),
	}
	s.running.Store(true)

	go func() {
		defer close(s.done)
		defer s.running.Store(false)
		defer cancel()
		run(ctx)
	}()
	return s
}

// Running reports whether the worker has not yet returned.
func (s *Session) Running() bool {
	if s == nil {
		return false
	}
	return s.running.Load()
}

// Done is closed once the worker has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cancel signals the worker to exit without waiting for it.
func (s *Session) Cancel() {
	s.cancel()
	if s.interrupt != nil {
		s.interrupt()
	}
}

// Stop signals the worker and blocks until it has exited.  It is safe
// to call more than once and after the worker has finished on its own.
// Stop must not be called from inside the worker (for example from a
// receive callback); that would wait on itself forever.
func (s *Session) Stop() {
	s.cancel()

	ticker := time.NewTicker(interruptEvery)
	defer ticker.Stop()
	for {
		if s.interrupt != nil {
			s.interrupt()
		}
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until the worker exits or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
