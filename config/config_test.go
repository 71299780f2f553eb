package config

import (
	"strings"
	"testing"
	"time"

	"sockkit/internal/errors"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	cfg.Port = 9000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with a port should validate: %v", err)
	}
	if cfg.TTL != DefaultMulticastTTL || cfg.Backlog != DefaultBacklog || !cfg.Loopback {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func(mut func(c *Config)) *Config {
		c := Defaults()
		c.Port = 9000
		mut(c)
		return c
	}
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string // substring; "" means valid
	}{
		{"udp listen", base(func(c *Config) {}), ""},
		{"udp send", base(func(c *Config) { c.Port = 0; c.Message = "hi"; c.Remote = "127.0.0.1:9" }), ""},
		{"server", base(func(c *Config) { c.Mode = "server" }), ""},
		{"client", base(func(c *Config) { c.Mode = "client"; c.Port = 0; c.Remote = "10.0.0.1:80" }), ""},
		{"multicast listen", base(func(c *Config) { c.Mode = "multicast"; c.BindIP = "239.1.2.3" }), ""},
		{"multicast send", base(func(c *Config) { c.Mode = "multicast"; c.Message = "x"; c.Remote = "239.1.2.3:5000" }), ""},

		{"unknown mode", base(func(c *Config) { c.Mode = "anycast" }), "--mode=anycast"},
		{"bad bind", base(func(c *Config) { c.BindIP = "::1" }), "--bind"},
		{"port range", base(func(c *Config) { c.Port = 70000 }), "--port=70000"},
		{"bad remote", base(func(c *Config) { c.Remote = "nohost" }), "hint: use ip:port"},
		{"long message", base(func(c *Config) { c.Message = strings.Repeat("x", 4097); c.Remote = "127.0.0.1:1" }), "4096"},
		{"client without remote", base(func(c *Config) { c.Mode = "client" }), "required in client mode"},
		{"server with send", base(func(c *Config) { c.Mode = "server"; c.Message = "x" }), "cannot send"},
		{"udp send without remote", base(func(c *Config) { c.Message = "x" }), "destination is required"},
		{"listen without port", base(func(c *Config) { c.Port = 0 }), "hint: add -p"},
		{"multicast non-group", base(func(c *Config) { c.Mode = "multicast"; c.BindIP = "10.0.0.1" }), "group address"},
		{"bad format", base(func(c *Config) { c.Format = "xml" }), "--format=xml"},
		{"ttl", base(func(c *Config) { c.TTL = 300 }), "--ttl=300"},
		{"backlog", base(func(c *Config) { c.Backlog = -1 }), "--backlog"},
		{"negative wait", base(func(c *Config) { c.Wait = -time.Second }), "durations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			var ce *errors.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("expected a ConfigError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestListening(t *testing.T) {
	tests := []struct {
		mode, msg string
		want      bool
	}{
		{"unicast", "", true},
		{"broadcast", "hello", false},
		{"server", "", true},
		{"client", "", false},
		{"bogus", "", false},
	}
	for _, tt := range tests {
		c := &Config{Mode: tt.mode, Message: tt.msg}
		if got := c.Listening(); got != tt.want {
			t.Errorf("%s/%q: Listening = %v, want %v", tt.mode, tt.msg, got, tt.want)
		}
	}
}

func TestRemoteAddr(t *testing.T) {
	c := &Config{Remote: "192.168.0.10:7000"}
	ip, port, err := c.RemoteAddr()
	if err != nil || ip != "192.168.0.10" || port != 7000 {
		t.Errorf("got %q %d %v", ip, port, err)
	}
}
