package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"sockkit/util"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	tests := [][]string{
		{"-p", "8080", "--dry-run"},
		{"-m", "server", "-p", "8080", "-k", "--dry-run"},
		{"-m", "client", "--to", "127.0.0.1:80", "-s", "GET /", "--dry-run"},
		{"-m", "multicast", "-b", "239.1.1.1", "-p", "5000", "--no-loopback", "--dry-run"},
	}
	for _, args := range tests {
		if err := Execute(context.Background(), args); err != nil {
			t.Errorf("%v: unexpected error: %v", args, err)
		}
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := [][]string{
		{"-m", "server", "--dry-run"},         // no port
		{"-m", "client", "--dry-run"},         // no --to
		{"-m", "tcp", "-p", "1", "--dry-run"},  // unknown mode
		{"-p", "1", "--format", "x", "--dry-run"},
	}
	for _, args := range tests {
		if err := Execute(context.Background(), args); err == nil {
			t.Errorf("%v: expected validation error", args)
		}
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	if err := Execute(context.Background(), []string{"--nonexistent-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if err := Execute(context.Background(), []string{"-p", "9000", "stray"}); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

// TestParseArgs_Precedence verifies flags beat SOCKKIT_* variables,
// which beat the config file, which beats the defaults.
func TestParseArgs_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sockkit.yaml")
	conf := "mode: server\nport: 7000\nbacklog: 5\nformat: hex\nverbose: 2\n"
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SOCKKIT_PORT", "7001")
	t.Setenv("SOCKKIT_FORMAT", "text")

	cfg, _, err := parseArgs([]string{"--config", path, "--format", "raw", "-v"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "server" || cfg.Backlog != 5 {
		t.Errorf("file values lost: mode=%q backlog=%d", cfg.Mode, cfg.Backlog)
	}
	if cfg.Port != 7001 {
		t.Errorf("port = %d, want env value 7001", cfg.Port)
	}
	if cfg.Format != "raw" {
		t.Errorf("format = %q, want flag value raw", cfg.Format)
	}
	if cfg.Verbose != 3 {
		t.Errorf("verbose = %d, want 3", cfg.Verbose)
	}
	if cfg.ConfigFile != path {
		t.Errorf("config file = %q", cfg.ConfigFile)
	}
}

func TestParseArgs_Loopback(t *testing.T) {
	cfg, _, err := parseArgs([]string{"-p", "1"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Loopback {
		t.Error("loopback should default on")
	}
	cfg, _, err = parseArgs([]string{"-p", "1", "--no-loopback"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Loopback {
		t.Error("--no-loopback ignored")
	}
}

func TestParseArgs_MissingConfigFile(t *testing.T) {
	_, _, err := parseArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestExecute_ListenUntilCancelled runs a real UDP listener and stops
// it through the context.
func TestExecute_ListenUntilCancelled(t *testing.T) {
	port, err := util.FindFreeUDPPort()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	args := []string{"-b", "127.0.0.1", "-p", strconv.Itoa(port), "--stats", "-v", "-v"}
	done := make(chan error, 1)
	go func() { done <- Execute(ctx, args) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop after cancellation")
	}
}
