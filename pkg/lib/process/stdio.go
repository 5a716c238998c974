package process

import (
	"fmt"
	"strconv"
	"strings"
)

type stdioKind int

const (
	stdioDiscard stdioKind = iota
	stdioInherit
	stdioPipe
)

// StdioSpec says how one descriptor slot of the child is wired. The zero value is
// Discard.
type StdioSpec struct {
	kind     stdioKind
	fd       int
	readable bool
	writable bool
}

// Discard connects the slot to the null device.
func Discard() StdioSpec {
	return StdioSpec{kind: stdioDiscard}
}

// InheritFd makes the slot alias the parent's descriptor fd.
func InheritFd(fd int) StdioSpec {
	return StdioSpec{kind: stdioInherit, fd: fd}
}

// CreatePipe creates a fresh pipe for the slot. Directions are from the child's
// point of view: readable means the child reads and the parent writes, writable
// means the child writes and the parent reads.
func CreatePipe(readable, writable bool) StdioSpec {
	return StdioSpec{kind: stdioPipe, readable: readable, writable: writable}
}

func (s StdioSpec) IsDiscard() bool { return s.kind == stdioDiscard }
func (s StdioSpec) IsInherit() bool { return s.kind == stdioInherit }
func (s StdioSpec) IsPipe() bool    { return s.kind == stdioPipe }

// Fd returns the inherited descriptor. It is only meaningful for InheritFd.
func (s StdioSpec) Fd() int { return s.fd }

// Readable reports whether the child may read from a CreatePipe slot.
func (s StdioSpec) Readable() bool { return s.kind == stdioPipe && s.readable }

// Writable reports whether the child may write to a CreatePipe slot.
func (s StdioSpec) Writable() bool { return s.kind == stdioPipe && s.writable }

// String renders the spec in the form accepted by ParseStdioSpec.
func (s StdioSpec) String() string {
	switch s.kind {
	case stdioInherit:
		return "inherit:" + strconv.Itoa(s.fd)
	case stdioPipe:
		mode := ""
		if s.readable {
			mode += "r"
		}
		if s.writable {
			mode += "w"
		}
		if mode == "" {
			return "pipe"
		}
		return "pipe:" + mode
	default:
		return "discard"
	}
}

// ParseStdioSpec parses "discard", "inherit:N", "pipe", "pipe:r", "pipe:w" or
// "pipe:rw".
func ParseStdioSpec(s string) (StdioSpec, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	kind, arg, hasArg := strings.Cut(s, ":")
	switch kind {
	case "discard", "null", "ignore":
		if hasArg {
			break
		}
		return Discard(), nil
	case "inherit":
		if !hasArg {
			break
		}
		fd, err := strconv.Atoi(arg)
		if err != nil || fd < 0 {
			return StdioSpec{}, fmt.Errorf("invalid descriptor in stdio spec %q", s)
		}
		return InheritFd(fd), nil
	case "pipe":
		if strings.Trim(arg, "rw") != "" {
			break
		}
		return CreatePipe(strings.Contains(arg, "r"), strings.Contains(arg, "w")), nil
	}
	return StdioSpec{}, fmt.Errorf("unknown stdio spec %q", s)
}
