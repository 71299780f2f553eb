// Package errors provides domain-specific error types for sockkit.
//
// Failures never cross the transport boundary as panics.  They are
// grouped into four kinds: validation failures (rejected before any OS
// call), setup failures (socket/bind/listen/connect/join), transient
// I/O conditions (retried in place) and terminal I/O conditions (end a
// receive loop).
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrClosed          = errors.New("socket is closed")
	ErrNotConnected    = errors.New("not connected")
	ErrNotBound        = errors.New("socket is not bound")
	ErrUnsupported     = errors.New("operation not supported in this mode")
	ErrSessionActive   = errors.New("receive session already active")
	ErrNoCallback      = errors.New("receive callback is nil")
	ErrBroadcastDenied = errors.New("broadcast not permitted in this mode")
	ErrInvalidHandle   = errors.New("invalid socket handle")
	ErrNoParser        = errors.New("no protocol parser selected")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // "socket", "bind", "listen", "join", "connect", "accept", "send", "recv"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the condition is transient
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError reports an input rejected before any OS call.
type ValidationError struct {
	Field   string      // "message", "ip", "port", "mode", ...
	Value   interface{} // the rejected value (nil if missing)
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: IsTransient(err),
	}
}

// Invalid creates a ValidationError.
func Invalid(field string, value interface{}, msg string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: msg}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTransient reports whether err is a "try again" condition: a
// would-block or interrupted syscall, or an expired read deadline.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) && ne.Retryable {
		return true
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return false
}

// IsValidation reports whether err was produced by input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsClosed reports whether err is the expected noise of a descriptor
// being closed underneath a blocked call, or of the peer going away.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use sockkit/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
