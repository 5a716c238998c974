package runner

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SanjoDeundiak/procspawn/pkg/lib"
)

// StopResult returns process info and its final status after Stop.
type StopResult struct {
	Command *lib.Command
	Status  *lib.ProcessStatus
}

// Stop asks the process to exit, kills it if it is still running after the
// grace period, and returns its final status (or the current one if it does
// not settle in time).
func (runner *Runner) Stop(id string) (*StopResult, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}
	command := pe.command
	res := StopResult{Command: &command}

	select {
	case <-pe.finished:
		st := pe.lockAndGetStatus()
		res.Status = &st
		return &res, nil
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), runner.stopGrace+time.Second)
	defer cancel()
	if _, err := pe.proc.Terminate(ctx, runner.stopGrace); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, os.ErrProcessDone) {
		return nil, err
	}

	// Output may still be draining; give it the rest of the deadline.
	select {
	case <-pe.finished:
	case <-ctx.Done():
		logger.Debug("process did not settle after stop", zap.String("id", id))
	}

	st := pe.lockAndGetStatus()
	res.Status = &st
	return &res, nil
}

// Close stops every running process and removes the scratch directory.
func (runner *Runner) Close() error {
	ids := runner.List()

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = runner.Stop(id)
		}()
	}
	wg.Wait()

	errs = append(errs, os.RemoveAll(runner.baseDir))
	return errors.Join(errs...)
}
