package process

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/resource"
)

// Pipe is the parent's end of a pipe created for a CreatePipe slot. Its direction
// is the opposite of the child's: a slot the child writes to yields a Pipe the
// parent reads from, and the other way round.
type Pipe struct {
	file     *resource.Owned[*os.File]
	canRead  bool
	canWrite bool
}

var _ io.ReadWriteCloser = (*Pipe)(nil)

func newPipe(f *os.File, spec StdioSpec) *Pipe {
	return &Pipe{
		file:     resource.Own(f, (*os.File).Close),
		canRead:  spec.Writable(),
		canWrite: spec.Readable(),
	}
}

// CanRead reports whether the parent may read from this endpoint.
func (p *Pipe) CanRead() bool { return p.canRead }

// CanWrite reports whether the parent may write to this endpoint.
func (p *Pipe) CanWrite() bool { return p.canWrite }

// open returns the file while the Pipe still owns it.
func (p *Pipe) open() (*os.File, error) {
	if p.file.Released() {
		return nil, os.ErrClosed
	}
	return p.file.Value(), nil
}

func (p *Pipe) Read(b []byte) (int, error) {
	if !p.canRead {
		return 0, ErrWrongDirection
	}
	f, err := p.open()
	if err != nil {
		return 0, err
	}
	return f.Read(b)
}

func (p *Pipe) Write(b []byte) (int, error) {
	if !p.canWrite {
		return 0, ErrWrongDirection
	}
	f, err := p.open()
	if err != nil {
		return 0, err
	}
	return f.Write(b)
}

// SetDeadline sets read and write deadlines when the underlying descriptor
// supports them.
func (p *Pipe) SetDeadline(t time.Time) error {
	f, err := p.open()
	if err != nil {
		return err
	}
	return f.SetDeadline(t)
}

// Fd returns the raw descriptor. It stays owned by the Pipe. After Close or File
// it returns ^uintptr(0).
func (p *Pipe) Fd() uintptr {
	f, err := p.open()
	if err != nil {
		return ^uintptr(0)
	}
	return f.Fd()
}

// Close closes the endpoint. The child sees end of file on its side once every
// copy of the descriptor is closed. Closing twice is a no-op.
func (p *Pipe) Close() error {
	return p.file.Release()
}

// Closed reports whether Close was called.
func (p *Pipe) Closed() bool {
	return p.file.Released()
}

// File hands the descriptor over to the caller, who becomes responsible for
// closing it. The Pipe is unusable afterwards.
func (p *Pipe) File() (*os.File, error) {
	f, ok := p.file.Take()
	if !ok {
		return nil, os.ErrClosed
	}
	return f, nil
}

func (p *Pipe) String() string {
	mode := ""
	if p.canRead {
		mode += "r"
	}
	if p.canWrite {
		mode += "w"
	}
	return fmt.Sprintf("pipe(%s)", mode)
}
