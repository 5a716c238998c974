package process

import (
	"fmt"
	"os"
	"syscall"
)

// ExitStatus describes how a child terminated: either a normal exit with a code or
// termination by a signal. Values are comparable with ==.
type ExitStatus struct {
	signaled bool
	value    int
}

// Exited returns the status of a process that terminated normally with code.
func Exited(code int) ExitStatus {
	return ExitStatus{value: code}
}

// Signaled returns the status of a process killed by signal sig.
func Signaled(sig int) ExitStatus {
	return ExitStatus{signaled: true, value: sig}
}

// Exited reports whether the process terminated normally.
func (s ExitStatus) Exited() bool {
	return !s.signaled
}

// Code returns the exit code, if the process exited normally.
func (s ExitStatus) Code() (int, bool) {
	if s.signaled {
		return 0, false
	}
	return s.value, true
}

// Signal returns the terminating signal, if the process was signaled.
func (s ExitStatus) Signal() (int, bool) {
	if !s.signaled {
		return 0, false
	}
	return s.value, true
}

// Succeeded reports whether the process exited normally with code 0.
// Termination by a signal is never a success.
func (s ExitStatus) Succeeded() bool {
	return s.Matches(0)
}

// Matches reports whether the process exited normally with the given code.
// A signaled status never matches, even when the signal number equals code.
func (s ExitStatus) Matches(code int) bool {
	return s == Exited(code)
}

func (s ExitStatus) String() string {
	if s.signaled {
		return fmt.Sprintf("signal: %d", s.value)
	}
	return fmt.Sprintf("exit code: %d", s.value)
}

// exitStatusFromState converts what the OS wait returned.
func exitStatusFromState(state *os.ProcessState) ExitStatus {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Signaled(int(ws.Signal()))
	}
	return Exited(state.ExitCode())
}
