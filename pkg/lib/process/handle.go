package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Process owns a spawned child and the parent ends of its pipes. Pipe slots are
// index-aligned with SpawnConfig.Stdio: slot i holds a *Pipe iff Stdio[i] was a
// CreatePipe, until the caller closes it.
//
// A Process is meant to be used by one goroutine at a time. Wait, WaitContext,
// Done, Exited and Close may also be called concurrently.
type Process struct {
	cmd    *exec.Cmd
	pid    int
	config SpawnConfig

	mu    sync.Mutex
	pipes []*Pipe

	done    chan struct{}
	status  ExitStatus
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

func newProcess(cmd *exec.Cmd, cfg SpawnConfig, pipes []*Pipe) *Process {
	p := &Process{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		config: cfg,
		pipes:  pipes,
		done:   make(chan struct{}),
	}
	go p.reap()
	return p
}

// reap performs the only OS wait for the child and publishes the result.
func (p *Process) reap() {
	err := p.cmd.Wait()
	if state := p.cmd.ProcessState; state != nil {
		p.status = exitStatusFromState(state)
		logger.Debug("reaped", zap.Int("pid", p.pid), zap.Stringer("status", p.status))
	} else {
		p.waitErr = fmt.Errorf("wait for process %d: %w", p.pid, err)
		logger.Warn("wait failed", zap.Int("pid", p.pid), zap.Error(err))
	}
	close(p.done)
}

// PID returns the child's process id.
func (p *Process) PID() int {
	return p.pid
}

// Config returns a copy of the config the child was spawned with.
func (p *Process) Config() SpawnConfig {
	return p.config.clone()
}

// Signal delivers sig to the child without waiting for it to act. It fails if the
// child has already been reaped or delivery is refused.
func (p *Process) Signal(sig int) error {
	if err := p.cmd.Process.Signal(toSignal(sig)); err != nil {
		return fmt.Errorf("signal %d to process %d: %w", sig, p.pid, err)
	}
	return nil
}

// Done is closed once the child has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the child has terminated and returns how it ended. Repeated
// calls return the same status. It panics if the OS wait itself failed, which
// only happens when something else reaped the child behind this handle's back.
func (p *Process) Wait() ExitStatus {
	<-p.done
	if p.waitErr != nil {
		panic(p.waitErr)
	}
	return p.status
}

// WaitContext is Wait bounded by ctx. It returns ctx.Err() if ctx ends first.
// The child keeps running; use Signal to stop it.
func (p *Process) WaitContext(ctx context.Context) (ExitStatus, error) {
	select {
	case <-p.done:
		return p.status, p.waitErr
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	}
}

// Exited returns the status without blocking. ok is false while the child runs.
func (p *Process) Exited() (status ExitStatus, ok bool) {
	select {
	case <-p.done:
		return p.status, p.waitErr == nil
	default:
		return ExitStatus{}, false
	}
}

// Terminate asks the child to exit with PleaseExitSignal, and sends MustDieSignal
// if it is still running after grace. It returns once the child is reaped or ctx
// ends.
func (p *Process) Terminate(ctx context.Context, grace time.Duration) (ExitStatus, error) {
	if status, ok := p.Exited(); ok {
		return status, nil
	}
	if err := p.Signal(PleaseExitSignal); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return ExitStatus{}, err
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.status, p.waitErr
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	case <-timer.C:
	}

	logger.Debug("grace period expired, killing", zap.Int("pid", p.pid), zap.Duration("grace", grace))
	if err := p.Signal(MustDieSignal); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return ExitStatus{}, err
	}
	return p.WaitContext(ctx)
}

// NumSlots returns the number of descriptor slots the child was spawned with.
func (p *Process) NumSlots() int {
	return len(p.pipes)
}

// Pipe returns the endpoint for slot i, or nil if the slot was not a CreatePipe
// or has been closed. It panics if i is out of range.
func (p *Process) Pipe(i int) *Pipe {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pipes[i]
}

// Pipes returns a snapshot of every slot.
func (p *Process) Pipes() []*Pipe {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Pipe(nil), p.pipes...)
}

// ClosePipe closes the endpoint in slot i and leaves the slot empty, e.g. to
// give the child end of file on its stdin. It panics if i is out of range.
func (p *Process) ClosePipe(i int) error {
	p.mu.Lock()
	if i < 0 || i >= len(p.pipes) {
		p.mu.Unlock()
		panic(fmt.Sprintf("process: slot %d out of range [0,%d)", i, len(p.pipes)))
	}
	pipe := p.pipes[i]
	p.pipes[i] = nil
	p.mu.Unlock()
	if pipe == nil {
		return nil
	}
	return pipe.Close()
}

// Stdin returns slot 0 if the child has one and it is a pipe.
func (p *Process) Stdin() *Pipe { return p.slot(0) }

// Stdout returns slot 1 if the child has one and it is a pipe.
func (p *Process) Stdout() *Pipe { return p.slot(1) }

// Stderr returns slot 2 if the child has one and it is a pipe.
func (p *Process) Stderr() *Pipe { return p.slot(2) }

func (p *Process) slot(i int) *Pipe {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i >= len(p.pipes) {
		return nil
	}
	return p.pipes[i]
}

// Close releases the handle: it closes every pipe slot that is still open, then
// waits for the child. Closing the pipes first unblocks a child stuck on I/O with
// the parent. Close never panics; a failed wait is logged. It returns the errors
// from closing pipes, and is a no-op after the first call.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		for i := range p.pipes {
			if err := p.ClosePipe(i); err != nil {
				errs = append(errs, fmt.Errorf("close slot %d: %w", i, err))
			}
		}
		p.closeErr = errors.Join(errs...)

		<-p.done
		if p.waitErr != nil {
			logger.Warn("release process", zap.Int("pid", p.pid), zap.Error(p.waitErr))
		}
	})
	return p.closeErr
}
