//go:build unix && !linux

package transport

// restrictMulticast is a no-op; BSD stacks already filter by membership.
func restrictMulticast(int) error { return nil }
