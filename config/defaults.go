package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultMode is the transport mode used when none is given.
	DefaultMode = "unicast"

	// DefaultFormat selects the dump format from the output device.
	DefaultFormat = "auto"

	// DefaultConnTimeout is the TCP connect timeout.
	DefaultConnTimeout = 10 * time.Second

	// DefaultMulticastTTL keeps multicast traffic on the local segment.
	DefaultMulticastTTL = 1

	// DefaultBacklog is the TCP server listen backlog.
	DefaultBacklog = 20

	// DefaultBufferSize is the receive buffer; it matches the largest
	// message a socket sends.
	DefaultBufferSize = 4096

	// MaxMessageSize bounds --send.
	MaxMessageSize = 4096
)

// Defaults returns a Config carrying every default value.
func Defaults() *Config {
	return &Config{
		Mode:           DefaultMode,
		Format:         DefaultFormat,
		ConnectTimeout: DefaultConnTimeout,
		TTL:            DefaultMulticastTTL,
		Loopback:       true,
		Backlog:        DefaultBacklog,
		BufferSize:     DefaultBufferSize,
		Verbose:        1,
	}
}
