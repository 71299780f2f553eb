// Package core is the orchestration layer.  It composes sockets and
// capabilities into complete operational modes and provides a builder
// that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  socket  →  capability  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of sockkit (listen or
// send).  Each mode owns its socket from bind to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
