package lib

import (
	"time"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
)

// ProcessState is the coarse lifecycle state of a supervised process.
type ProcessState int

const (
	ProcessStateUnspecified ProcessState = iota
	ProcessStateRunning
	ProcessStateStopped
)

func (s ProcessState) String() string {
	switch s {
	case ProcessStateRunning:
		return "Running"
	case ProcessStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Command captures what was started.
type Command struct {
	Command string
	Args    []string
	Dir     string
}

// CommandOf extracts the Command from a spawn config.
func CommandOf(cfg process.SpawnConfig) Command {
	return Command{Command: cfg.Program, Args: append([]string(nil), cfg.Args...), Dir: cfg.Dir}
}

// ProcessStatus captures runtime state and timestamps.
type ProcessStatus struct {
	State ProcessState
	PID   int
	// ExitCode is the exit code, or -1 when the process was killed by a signal.
	ExitCode *int
	// Exit is how the process ended; nil while it runs.
	Exit      *process.ExitStatus
	StartTime time.Time
	EndTime   *time.Time
}
