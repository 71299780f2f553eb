package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sockkit.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
mode: multicast
bind: 239.1.1.1
port: 5000
read-timeout: 500ms
wait: 2s
multicast:
  ttl: 4
  interface: eth1
  loopback: false
reuse-addr: true
format: hex
stats: true
`)
	cfg := Defaults()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Mode != "multicast" || cfg.BindIP != "239.1.1.1" || cfg.Port != 5000 {
		t.Errorf("socket = %q %q %d", cfg.Mode, cfg.BindIP, cfg.Port)
	}
	if cfg.ReadTimeout != 500*time.Millisecond || cfg.Wait != 2*time.Second {
		t.Errorf("timing = %v %v", cfg.ReadTimeout, cfg.Wait)
	}
	if cfg.TTL != 4 || cfg.Interface != "eth1" || cfg.Loopback || !cfg.ReuseAddr {
		t.Errorf("options = ttl %d if %q loopback %v reuse %v", cfg.TTL, cfg.Interface, cfg.Loopback, cfg.ReuseAddr)
	}
	if cfg.Format != "hex" || !cfg.Stats {
		t.Errorf("output = %q %v", cfg.Format, cfg.Stats)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
	// Untouched keys keep their defaults.
	if cfg.Backlog != DefaultBacklog || cfg.ConnectTimeout != DefaultConnTimeout {
		t.Errorf("defaults lost: backlog %d timeout %v", cfg.Backlog, cfg.ConnectTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg := Defaults()
	if err := LoadFile(writeFile(t, ""), cfg); err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if cfg.Mode != DefaultMode {
		t.Errorf("Mode = %q", cfg.Mode)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "mdoe: server\n", "mdoe"},
		{"bad duration", "wait: forever\n", "sockkit.yaml"},
		{"bad yaml", "mode: [\n", "sockkit.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadFile(writeFile(t, tt.body), Defaults())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}

	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Defaults()); err == nil {
		t.Error("missing file should fail")
	}
}
