package runner

import "go.uber.org/zap"

// Output returns replaying subscriptions to the process's stdout and stderr.
// Both channels close once the process has exited and its output is delivered.
func (runner *Runner) Output(id string) (<-chan []byte, <-chan []byte, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, nil, err
	}

	stdoutCh := pe.stdout.Subscribe(5)
	stderrCh := pe.stderr.Subscribe(5)
	logger.Debug("subscribed to output", zap.String("id", id))

	return stdoutCh, stderrCh, nil
}
