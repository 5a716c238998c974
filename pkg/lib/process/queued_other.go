//go:build unix && !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package process

func queuedBytes(fd int) (int, error) {
	return 0, ErrUnsupported
}
