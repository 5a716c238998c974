//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package process

import "golang.org/x/sys/unix"

// fionread is _IOR('f', 127, int).
const fionread = 0x4004667f

func queuedBytes(fd int) (int, error) {
	return unix.IoctlGetInt(fd, fionread)
}
