//go:build unix

package process

import (
	"os"
	"syscall"
)

const (
	// PleaseExitSignal asks the child to exit.
	PleaseExitSignal = int(syscall.SIGTERM)
	// MustDieSignal forces the child to exit.
	MustDieSignal = int(syscall.SIGKILL)
)

func toSignal(sig int) os.Signal {
	return syscall.Signal(sig)
}

func sysProcAttr(cfg SpawnConfig) (*syscall.SysProcAttr, error) {
	attr := &syscall.SysProcAttr{}

	// A new session also makes the child leader of a new process group.
	if cfg.Detach {
		attr.Setsid = true
	}

	if cfg.UID != nil || cfg.GID != nil {
		cred := &syscall.Credential{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
			// setgroups needs privilege; unprivileged callers keep their groups.
			NoSetGroups: os.Geteuid() != 0,
		}
		if cfg.UID != nil {
			cred.Uid = *cfg.UID
		}
		if cfg.GID != nil {
			cred.Gid = *cfg.GID
		}
		attr.Credential = cred
	}
	return attr, nil
}
