// Package metrics provides lightweight, lock-free counters for tracking
// the traffic and receive sessions of sockkit sockets.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics shared by any number of sockets.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	connections    atomic.Int64
	bytesIn        atomic.Int64
	bytesOut       atomic.Int64
	unitsIn        atomic.Int64
	unitsOut       atomic.Int64
	sendFailures   atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastReceive  time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionStarted increments both the active and total session counters.
func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionStopped decrements the active session counter.
func (c *Collector) SessionStopped() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the number of receive sessions running now.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// Connected records an established TCP connection (dialled or accepted).
func (c *Collector) Connected() {
	if c == nil {
		return
	}
	c.connections.Add(1)
}

// Connections returns the lifetime TCP connection count.
func (c *Collector) Connections() int64 {
	if c == nil {
		return 0
	}
	return c.connections.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// Received records one delivered datagram or stream chunk of n bytes.
func (c *Collector) Received(n int) {
	if c == nil {
		return
	}
	c.unitsIn.Add(1)
	c.bytesIn.Add(int64(n))
	c.mu.Lock()
	c.lastReceive = time.Now()
	c.mu.Unlock()
}

// Sent records one successful send of n bytes.
func (c *Collector) Sent(n int) {
	if c == nil {
		return
	}
	c.unitsOut.Add(1)
	c.bytesOut.Add(int64(n))
}

// SendFailed records a send that was rejected or failed in the OS.
func (c *Collector) SendFailed() {
	if c == nil {
		return
	}
	c.sendFailures.Add(1)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// UnitsIn returns the number of callbacks delivered.
func (c *Collector) UnitsIn() int64 {
	if c == nil {
		return 0
	}
	return c.unitsIn.Load()
}

// UnitsOut returns the number of successful sends.
func (c *Collector) UnitsOut() int64 {
	if c == nil {
		return 0
	}
	return c.unitsOut.Load()
}

// SendFailures returns the number of failed sends.
func (c *Collector) SendFailures() int64 {
	if c == nil {
		return 0
	}
	return c.sendFailures.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	Connections      int64  `json:"connections"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	UnitsIn          int64  `json:"units_in"`
	UnitsOut         int64  `json:"units_out"`
	SendFailures     int64  `json:"send_failures"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastReceive      string `json:"last_receive,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:         time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive: c.sessionsActive.Load(),
		SessionsTotal:  c.sessionsTotal.Load(),
		Connections:    c.connections.Load(),
		BytesIn:        c.bytesIn.Load(),
		BytesOut:       c.bytesOut.Load(),
		UnitsIn:        c.unitsIn.Load(),
		UnitsOut:       c.unitsOut.Load(),
		SendFailures:   c.sendFailures.Load(),
		ErrorsTotal:    c.errorsTotal.Load(),
	}
	if !c.lastReceive.IsZero() {
		s.LastReceive = c.lastReceive.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
