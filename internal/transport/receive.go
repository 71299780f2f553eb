package transport

import (
	"context"
	"sync"
	"time"

	"sockkit/internal/errors"
	"sockkit/internal/session"
	"sockkit/util"
)

// receiver is the receive-session bookkeeping every strategy embeds.
// It enforces the one-session-per-strategy invariant.
type receiver struct {
	mu          sync.Mutex
	active      *session.Session
	logger      *util.Logger
	readTimeout time.Duration
}

// begin starts run as the strategy's session unless one is running.
func (r *receiver) begin(run func(ctx context.Context), interrupt func()) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active.Running() {
		return nil, errors.ErrSessionActive
	}
	r.active = session.Start(run, interrupt)
	return r.active, nil
}

func (r *receiver) receiving() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active.Running()
}

// halt stops and joins the active session, if any.
func (r *receiver) halt() {
	r.mu.Lock()
	s := r.active
	r.active = nil
	r.mu.Unlock()

	if s != nil {
		s.Stop()
	}
}

// SetReceiving implements Strategy.
func (r *receiver) SetReceiving(on bool) bool {
	if on {
		return r.receiving()
	}
	r.halt()
	return true
}

// aLongTimeAgo is a deadline in the past; setting it makes a blocked
// read or accept return immediately.
var aLongTimeAgo = time.Unix(1, 0)

// deadline returns the read deadline for the next receive call.
func (r *receiver) deadline() time.Time {
	if r.readTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(r.readTimeout)
}

// deliver hands the callback an owned copy of buf[:n].
func deliver(cb ReceiveCallback, buf []byte, n int, from AddressInfo) {
	data := make([]byte, n)
	copy(data, buf[:n])
	cb(data, n, from)
}

// readOutcome classifies a receive error for a loop.
type readOutcome int

const (
	readRetry readOutcome = iota // transient; go around again
	readStop                     // cancelled or peer gone; exit quietly
	readFail                     // terminal; log and exit
)

func classifyRead(ctx context.Context, err error) readOutcome {
	if ctx.Err() != nil {
		return readStop
	}
	if errors.IsTransient(err) {
		return readRetry
	}
	if errors.IsClosed(err) {
		return readStop
	}
	return readFail
}
