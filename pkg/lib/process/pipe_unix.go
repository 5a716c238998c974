//go:build unix

package process

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// newPipePair returns the parent and child ends for a CreatePipe slot. A slot the
// child only reads or only writes gets a plain pipe; anything else gets a stream
// socket pair so both sides can read and write.
func newPipePair(spec StdioSpec) (parent, child *os.File, err error) {
	switch {
	case spec.Readable() && !spec.Writable():
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, err
		}
		return w, r, nil
	case spec.Writable() && !spec.Readable():
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, err
		}
		return r, w, nil
	}

	// Hold ForkLock so no concurrent fork inherits the pair before it is
	// marked close-on-exec.
	syscall.ForkLock.RLock()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fds[0])
		unix.CloseOnExec(fds[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, nil, os.NewSyscallError("socketpair", err)
	}

	// The parent end is registered with the runtime poller so deadlines work.
	if err := unix.SetNonblock(fds[0], true); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, nil, os.NewSyscallError("setnonblock", err)
	}
	return os.NewFile(uintptr(fds[0]), "|socket"), os.NewFile(uintptr(fds[1]), "|socket"), nil
}

// dupFd duplicates a parent descriptor for an InheritFd slot. The copy is closed
// in the parent once the child has started; the original is never touched.
func dupFd(fd int) (*os.File, error) {
	syscall.ForkLock.RLock()
	nfd, err := unix.Dup(fd)
	if err == nil {
		unix.CloseOnExec(nfd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, os.NewSyscallError("dup", err)
	}
	return os.NewFile(uintptr(nfd), "|inherited"), nil
}

// Buffered returns how many bytes are queued in the endpoint and can be read
// without blocking.
func (p *Pipe) Buffered() (int, error) {
	f, err := p.open()
	if err != nil {
		return 0, err
	}
	conn, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var n int
	var ioctlErr error
	if err := conn.Control(func(fd uintptr) {
		n, ioctlErr = queuedBytes(int(fd))
	}); err != nil {
		return 0, err
	}
	if errors.Is(ioctlErr, ErrUnsupported) {
		return 0, ioctlErr
	}
	if ioctlErr != nil {
		return 0, os.NewSyscallError("ioctl", ioctlErr)
	}
	return n, nil
}
