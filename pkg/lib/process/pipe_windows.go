//go:build windows

package process

import (
	"fmt"
	"os"
)

func newPipePair(spec StdioSpec) (parent, child *os.File, err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	switch {
	case spec.Readable() && !spec.Writable():
		return w, r, nil
	case spec.Writable() && !spec.Readable():
		return r, w, nil
	}
	_ = r.Close()
	_ = w.Close()
	return nil, nil, fmt.Errorf("bidirectional pipe: %w", ErrUnsupported)
}

func dupFd(fd int) (*os.File, error) {
	return nil, fmt.Errorf("inherit descriptor %d: %w", fd, ErrUnsupported)
}

// Buffered is not available on Windows pipes.
func (p *Pipe) Buffered() (int, error) {
	return 0, ErrUnsupported
}
