package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Spawn failure kinds. A *SpawnError matches exactly one of them with errors.Is.
var (
	ErrInvalidConfig     = errors.New("invalid spawn config")
	ErrNotFound          = errors.New("program not found")
	ErrPermission        = errors.New("permission denied")
	ErrResourceExhausted = errors.New("resources exhausted")
	ErrBadDir            = errors.New("cannot use working directory")
	ErrUnsupported       = errors.New("not supported on this platform")
	ErrSpawnFailed       = errors.New("spawn failed")
)

// ErrWrongDirection is returned when a pipe endpoint is used against its direction.
var ErrWrongDirection = errors.New("pipe endpoint does not support this direction")

// SpawnError reports why Spawn could not start a child. No handle exists and no
// descriptor created for the attempt remains open.
type SpawnError struct {
	Op      string
	Program string
	Kind    error
	Err     error
}

func (e *SpawnError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("spawn %s: %s: %v", e.Program, e.Op, e.Kind)
	}
	return fmt.Sprintf("spawn %s: %s: %v", e.Program, e.Op, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newSpawnError(op, program string, err error) *SpawnError {
	return &SpawnError{Op: op, Program: program, Kind: classify(err), Err: err}
}

// classify maps an error from the spawn path onto one of the Err* kinds.
func classify(err error) error {
	for _, kind := range []error{ErrInvalidConfig, ErrUnsupported, ErrBadDir, ErrNotFound, ErrPermission, ErrResourceExhausted} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	var errno syscall.Errno
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, os.ErrPermission):
		return ErrPermission
	case errors.As(err, &errno):
		switch errno {
		case syscall.ENOTDIR:
			return ErrNotFound
		case syscall.EAGAIN, syscall.ENOMEM, syscall.EMFILE, syscall.ENFILE:
			return ErrResourceExhausted
		}
	}
	return ErrSpawnFailed
}
