// Package capability defines what the sockkit command does with each
// unit a socket receives.  Each Capability encapsulates one behaviour
// (dump to the terminal, decode with a protocol parser) and sees only
// the payload and its sender, which keeps capabilities testable and
// decoupled from transport details.
package capability

import (
	"sockkit/internal/errors"
	"sockkit/socket"
	"sockkit/util"
)

// Capability handles one received datagram or stream chunk.
type Capability interface {
	// Handle is called on the receive goroutine; it must not block
	// for long.
	Handle(data []byte, sender socket.AddressInfo) error
}

// Func adapts a plain function to Capability.
type Func func(data []byte, sender socket.AddressInfo) error

// Handle implements Capability.
func (f Func) Handle(data []byte, sender socket.AddressInfo) error { return f(data, sender) }

// Multi runs every capability in order and joins their errors.
type Multi []Capability

// Handle implements Capability.
func (m Multi) Handle(data []byte, sender socket.AddressInfo) error {
	var errs []error
	for _, c := range m {
		if err := c.Handle(data, sender); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Callback adapts c into a receive callback.  Handler errors are
// logged; they never stop the receive session.
func Callback(c Capability, logger *util.Logger) socket.ReceiveCallback {
	return func(buf []byte, n int, sender socket.AddressInfo) {
		if err := c.Handle(buf[:n], sender); err != nil {
			logger.Warn("handling %d bytes from %s: %v", n, sender, err)
		}
	}
}
