package process

import "golang.org/x/sys/unix"

// queuedBytes asks the kernel how many bytes are waiting on fd. TIOCINQ shares
// its request number with FIONREAD on Linux.
func queuedBytes(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCINQ)
}
