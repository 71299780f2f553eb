package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// TestStart_ReturnsImmediately verifies the caller is never blocked by
// the worker it starts.
func TestStart_ReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	start := time.Now()
	s := Start(func(ctx context.Context) {
		<-release
	}, nil)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Start blocked for %v", elapsed)
	}
	if !s.Running() {
		t.Error("session should be running")
	}
	close(release)
	s.Stop()
	if s.Running() {
		t.Error("session should not be running after Stop")
	}
}

// TestStop_CancelsContext verifies Stop cancels the worker's context
// and joins it.
func TestStop_CancelsContext(t *testing.T) {
	var exited atomic.Bool
	s := Start(func(ctx context.Context) {
		<-ctx.Done()
		exited.Store(true)
	}, nil)

	s.Stop()
	if !exited.Load() {
		t.Fatal("worker had not exited when Stop returned")
	}
}

// TestStop_RefiresInterrupt verifies Stop keeps interrupting a worker
// that ignores the first interrupt.
func TestStop_RefiresInterrupt(t *testing.T) {
	var calls atomic.Int32
	unblock := make(chan struct{}, 16)

	s := Start(func(ctx context.Context) {
		for {
			<-unblock
			// Only the third interrupt is honoured.
			if calls.Load() >= 3 {
				return
			}
		}
	}, func() {
		calls.Add(1)
		unblock <- struct{}{}
	})

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	if calls.Load() < 3 {
		t.Errorf("interrupt called %d times, want >= 3", calls.Load())
	}
}

// TestStop_Idempotent verifies repeated Stop calls do not block or panic.
func TestStop_Idempotent(t *testing.T) {
	s := Start(func(ctx context.Context) {}, nil)
	s.Stop()
	s.Stop()
	s.Cancel()
}

// TestWait verifies Wait honours both worker exit and context expiry.
func TestWait(t *testing.T) {
	s := Start(func(ctx context.Context) { <-ctx.Done() }, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("Wait should time out while the worker runs")
	}

	s.Cancel()
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait after Cancel: %v", err)
	}
}

// TestSessionIDs verifies every session carries a distinct identifier.
func TestSessionIDs(t *testing.T) {
	a := Start(func(ctx context.Context) {}, nil)
	b := Start(func(ctx context.Context) {}, nil)
	a.Stop()
	b.Stop()
	if a.ID == b.ID {
		t.Errorf("session IDs collide: %s", a.ID)
	}
}

// TestRunning_Nil verifies a nil session reports not running.
func TestRunning_Nil(t *testing.T) {
	var s *Session
	if s.Running() {
		t.Error("nil session should not be running")
	}
}
