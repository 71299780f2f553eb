// Package config defines the runtime configuration of the sockkit
// command and validates it before any socket is opened.
package config

import (
	"net"
	"strings"
	"time"

	"sockkit/internal/errors"
	"sockkit/internal/transport"
	"sockkit/util"
)

// Config holds every tuneable for a single sockkit run.
type Config struct {
	// ── Socket ───────────────────────────────────────────────────────
	Mode     string // unicast, multicast, broadcast, server or client
	BindIP   string // --bind: local address, or the group in multicast mode
	Port     int    // --port: local port
	Remote   string // --to: ip:port to send to or connect to
	Message  string // --send
	KeepOpen bool   // server: accept the next peer after one leaves

	// ── Timing ───────────────────────────────────────────────────────
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Wait           time.Duration // keep receiving replies this long after a send

	// ── Socket options ───────────────────────────────────────────────
	TTL        int
	Interface  string
	Loopback   bool
	ReuseAddr  bool
	Backlog    int
	BufferSize int

	// ── Output ───────────────────────────────────────────────────────
	ParserRules string
	Format      string // auto, text, hex or raw
	LogFile     string
	Stats       bool
	DryRun      bool
	Verbose     int
	ConfigFile  string
}

var formats = []string{"auto", "text", "hex", "raw"}

// TransportMode parses Mode.
func (c *Config) TransportMode() (transport.Mode, error) {
	return transport.ParseMode(c.Mode)
}

// RemoteAddr splits Remote into ip and port.
func (c *Config) RemoteAddr() (string, int, error) {
	return util.SplitAddr(c.Remote)
}

// Listening reports whether the run only receives: a server, or a UDP
// socket with nothing to send.
func (c *Config) Listening() bool {
	m, err := c.TransportMode()
	if err != nil {
		return false
	}
	return m == transport.TCPServer || (m.IsUDP() && c.Message == "")
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	mode, err := c.TransportMode()
	if err != nil {
		return &errors.ConfigError{
			Field:   "mode",
			Value:   c.Mode,
			Message: "unknown transport mode",
			Hint:    "use one of unicast, multicast, broadcast, server, client",
		}
	}

	if c.BindIP != "" {
		if ip := net.ParseIP(c.BindIP); ip == nil || ip.To4() == nil {
			return &errors.ConfigError{Field: "bind", Value: c.BindIP, Message: "not an IPv4 address"}
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &errors.ConfigError{Field: "port", Value: c.Port, Message: "out of range 0-65535"}
	}
	if c.Remote != "" {
		if _, _, err := c.RemoteAddr(); err != nil {
			return &errors.ConfigError{
				Field:   "to",
				Value:   c.Remote,
				Message: err.Error(),
				Hint:    "use ip:port, e.g. --to 127.0.0.1:9000",
			}
		}
	}
	if len(c.Message) > MaxMessageSize {
		return &errors.ConfigError{Field: "send", Value: len(c.Message), Message: "message longer than 4096 bytes"}
	}

	switch {
	case mode == transport.TCPClient && c.Remote == "":
		return &errors.ConfigError{
			Field:   "to",
			Message: "required in client mode",
			Hint:    "add --to <ip:port>",
		}
	case mode == transport.TCPServer && c.Message != "":
		return &errors.ConfigError{
			Field:   "send",
			Message: "a server cannot send before a peer connects",
			Hint:    "run the server without --send, or use client mode",
		}
	case mode.IsUDP() && c.Message != "" && c.Remote == "":
		return &errors.ConfigError{
			Field:   "to",
			Message: "a destination is required with --send",
			Hint:    "add --to <ip:port>",
		}
	case c.Listening() && c.Port == 0:
		return &errors.ConfigError{
			Field:   "port",
			Message: "listen modes need a local port",
			Hint:    "add -p <port>",
		}
	}

	if mode == transport.UDPMulticast {
		group := c.BindIP
		if c.Message != "" {
			group, _, _ = c.RemoteAddr()
		}
		if ip := net.ParseIP(group); ip == nil || !ip.IsMulticast() {
			return &errors.ConfigError{
				Field:   "bind",
				Value:   group,
				Message: "multicast mode needs an IPv4 group address",
				Hint:    "groups range from 224.0.0.0 to 239.255.255.255",
			}
		}
	}

	if !contains(formats, c.Format) {
		return &errors.ConfigError{
			Field:   "format",
			Value:   c.Format,
			Message: "unknown output format",
			Hint:    "use one of " + strings.Join(formats, ", "),
		}
	}
	if c.TTL < 0 || c.TTL > 255 {
		return &errors.ConfigError{Field: "ttl", Value: c.TTL, Message: "out of range 0-255"}
	}
	if c.Backlog < 0 {
		return &errors.ConfigError{Field: "backlog", Value: c.Backlog, Message: "must not be negative"}
	}
	if c.BufferSize < 0 {
		return &errors.ConfigError{Field: "buffer-size", Value: c.BufferSize, Message: "must not be negative"}
	}
	if c.ConnectTimeout < 0 || c.ReadTimeout < 0 || c.Wait < 0 {
		return &errors.ConfigError{Field: "timeout", Message: "durations must not be negative"}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
