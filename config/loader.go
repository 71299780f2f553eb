package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the SOCKKIT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// syntax ("1.5s") or plain seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SOCKKIT_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("SOCKKIT_BIND"); v != "" {
		cfg.BindIP = v
	}
	if v := envInt("SOCKKIT_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("SOCKKIT_TO"); v != "" {
		cfg.Remote = v
	}
	if v := os.Getenv("SOCKKIT_SEND"); v != "" {
		cfg.Message = v
	}
	if envBool("SOCKKIT_KEEP_OPEN") {
		cfg.KeepOpen = true
	}

	// Timing
	if v := envDuration("SOCKKIT_TIMEOUT"); v > 0 {
		cfg.ConnectTimeout = v
	}
	if v := envDuration("SOCKKIT_READ_TIMEOUT"); v > 0 {
		cfg.ReadTimeout = v
	}
	if v := envDuration("SOCKKIT_WAIT"); v > 0 {
		cfg.Wait = v
	}

	// Socket options
	if v := envInt("SOCKKIT_TTL"); v > 0 {
		cfg.TTL = v
	}
	if v := os.Getenv("SOCKKIT_INTERFACE"); v != "" {
		cfg.Interface = v
	}
	if envBool("SOCKKIT_NO_LOOPBACK") {
		cfg.Loopback = false
	}
	if envBool("SOCKKIT_REUSE_ADDR") {
		cfg.ReuseAddr = true
	}
	if v := envInt("SOCKKIT_BACKLOG"); v > 0 {
		cfg.Backlog = v
	}
	if v := envInt("SOCKKIT_BUFFER_SIZE"); v > 0 {
		cfg.BufferSize = v
	}

	// Output
	if v := os.Getenv("SOCKKIT_PARSER_RULES"); v != "" {
		cfg.ParserRules = v
	}
	if v := os.Getenv("SOCKKIT_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("SOCKKIT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if envBool("SOCKKIT_STATS") {
		cfg.Stats = true
	}
	if v := envInt("SOCKKIT_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return secondsDuration(sec)
	}
	return 0
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
