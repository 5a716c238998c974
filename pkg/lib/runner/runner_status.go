package runner

import (
	"os"
	"sort"

	"github.com/SanjoDeundiak/procspawn/pkg/lib"
)

type StatusResult struct {
	Command *lib.Command
	Status  *lib.ProcessStatus
}

// Status returns the command and current status of a process by identifier.
func (runner *Runner) Status(id string) (*StatusResult, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}

	status := pe.lockAndGetStatus()
	command := pe.command
	return &StatusResult{Command: &command, Status: &status}, nil
}

// List returns the identifiers of every process this runner started, sorted.
func (runner *Runner) List() []string {
	runner.mu.RLock()
	ids := make([]string, 0, len(runner.processes))
	for id := range runner.processes {
		ids = append(ids, id)
	}
	runner.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (runner *Runner) getProcess(id string) (*processEntry, error) {
	runner.mu.RLock()
	pe := runner.processes[id]
	runner.mu.RUnlock()
	if pe == nil {
		return nil, os.ErrNotExist
	}
	return pe, nil
}

func (processEntry *processEntry) lockAndGetStatus() lib.ProcessStatus {
	processEntry.mu.RLock()
	defer processEntry.mu.RUnlock()

	st := lib.ProcessStatus{
		State:     processEntry.state,
		PID:       processEntry.proc.PID(),
		StartTime: processEntry.start,
	}
	if processEntry.exit != nil {
		exit := *processEntry.exit
		st.Exit = &exit
		code, ok := exit.Code()
		if !ok {
			code = -1
		}
		st.ExitCode = &code
	}
	if processEntry.end != nil {
		t := *processEntry.end
		st.EndTime = &t
	}
	return st
}
