package socket

import (
	"net"
	"strings"

	"sockkit/internal/errors"
)

// Input limits enforced before any OS call.
const (
	MaxMessageSize = 4096
	MaxIPLength    = 16 // a dotted IPv4 string is at most 15 characters
	MinPort        = 1
	MaxPort        = 65535
)

// ValidateMessage checks that msg holds 1 to MaxMessageSize bytes.
func ValidateMessage(msg []byte) error {
	switch {
	case len(msg) == 0:
		return errors.Invalid("message", nil, "empty")
	case len(msg) > MaxMessageSize:
		return errors.Invalid("message", len(msg), "longer than 4096 bytes")
	}
	return nil
}

// ValidateDestination checks a remote endpoint: a non-empty dotted IPv4
// address of at most MaxIPLength characters and a port in 1-65535.
func ValidateDestination(ip string, port int) error {
	if err := validateIP(ip); err != nil {
		return err
	}
	if port < MinPort || port > MaxPort {
		return errors.Invalid("port", port, "out of range 1-65535")
	}
	return nil
}

func validateIP(ip string) error {
	switch {
	case ip == "":
		return errors.Invalid("ip", nil, "empty")
	case len(ip) > MaxIPLength:
		return errors.Invalid("ip", ip, "longer than 16 characters")
	}
	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil || strings.IndexByte(ip, ':') >= 0 {
		return errors.Invalid("ip", ip, "not a dotted IPv4 address")
	}
	return nil
}

// localEndpoint checks a bind target.  An empty ip means any address.
// A port outside 0-65535 is replaced by 0 so the OS picks one.
func localEndpoint(ip string, port int) (AddressInfo, bool, error) {
	if ip != "" {
		if err := validateIP(ip); err != nil {
			return AddressInfo{}, false, err
		}
	}
	if port < 0 || port > MaxPort {
		return AddressInfo{IP: ip}, true, nil
	}
	return AddressInfo{IP: ip, Port: uint16(port)}, false, nil
}
