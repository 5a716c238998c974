//go:build windows

package process

import (
	"fmt"
	"os"
	"syscall"
)

// Windows has no signals; both values are accepted by Signal and terminate the
// child.
const (
	PleaseExitSignal = 15
	MustDieSignal    = 9
)

func toSignal(sig int) os.Signal {
	switch sig {
	case PleaseExitSignal, MustDieSignal:
		return os.Kill
	default:
		return syscall.Signal(sig)
	}
}

func sysProcAttr(cfg SpawnConfig) (*syscall.SysProcAttr, error) {
	if cfg.UID != nil || cfg.GID != nil {
		return nil, fmt.Errorf("set uid/gid: %w", ErrUnsupported)
	}
	if len(cfg.Stdio) > 3 {
		return nil, fmt.Errorf("%d descriptor slots: %w", len(cfg.Stdio), ErrUnsupported)
	}
	attr := &syscall.SysProcAttr{}
	if cfg.Detach {
		attr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
	}
	return attr, nil
}
