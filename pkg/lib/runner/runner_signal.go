package runner

import (
	"go.uber.org/zap"
)

// Signal forwards sig to a running process. Signaling a process that already
// exited fails with os.ErrProcessDone.
func (runner *Runner) Signal(id string, sig int) error {
	pe, err := runner.getProcess(id)
	if err != nil {
		return err
	}
	logger.Debug("signaling process", zap.String("id", id), zap.Int("signal", sig))
	return pe.proc.Signal(sig)
}

// Wait blocks until the process has exited and its output has been collected,
// then returns its final status.
func (runner *Runner) Wait(id string) (*StatusResult, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}
	<-pe.finished
	return runner.Status(id)
}
