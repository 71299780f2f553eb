//go:build !unix

package transport

import "syscall"

// udpControl is a no-op off unix; broadcast stays at the runtime default.
func udpControl(broadcast, reuse bool) func(network, address string, c syscall.RawConn) error {
	return nil
}

func tcpControl(reuse bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
