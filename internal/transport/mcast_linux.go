package transport

import (
	"os"

	"golang.org/x/sys/unix"
)

// restrictMulticast turns off IP_MULTICAST_ALL so a socket only sees
// traffic for groups it joined itself, not every group joined anywhere
// on the host.
func restrictMulticast(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_ALL, 0); err != nil {
		return os.NewSyscallError("setsockopt IP_MULTICAST_ALL", err)
	}
	return nil
}
