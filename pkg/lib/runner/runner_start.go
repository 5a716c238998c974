package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SanjoDeundiak/procspawn/pkg/lib"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/output_storage"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
)

// outputDrainTimeout bounds how long output is collected after the child exits.
const outputDrainTimeout = 500 * time.Millisecond

type StartResult struct {
	ID     string
	pid    int
	Status *lib.ProcessStatus
}

// StartCommand starts command with args, stdin discarded and output captured.
func (runner *Runner) StartCommand(command string, args ...string) (*StartResult, error) {
	return runner.Start(process.NewSpawnConfig(command, args...))
}

// Start spawns cfg and begins supervising it. Without Stdio the child gets
// process.StandardStdio. Whatever the child writes to slots 1 and 2, when they
// are pipes, is captured for Output.
func (runner *Runner) Start(cfg process.SpawnConfig) (*StartResult, error) {
	if cfg.Program == "" {
		return nil, fmt.Errorf("%w: command is required", process.ErrInvalidConfig)
	}
	processId := uuid.NewString()

	workDir, ownDir := cfg.Dir, false
	if workDir == "" {
		workDir = filepath.Join(runner.baseDir, processId)
		if err := os.MkdirAll(workDir, 0o700); err != nil {
			return nil, err
		}
		cfg.Dir = workDir
		ownDir = true
	}
	if cfg.Stdio == nil {
		cfg.Stdio = process.StandardStdio()
	}

	log := logger.With(zap.String("id", processId), zap.String("program", cfg.Program))
	log.Debug("starting process")
	proc, err := runner.spawner.Spawn(cfg)
	if err != nil {
		log.Debug("failed to start process", zap.Error(err))
		if ownDir {
			if rerr := os.RemoveAll(workDir); rerr != nil {
				log.Debug("remove work dir", zap.Error(rerr))
			}
		}
		return nil, err
	}

	entry := &processEntry{
		id:       processId,
		command:  lib.CommandOf(cfg),
		proc:     proc,
		workDir:  workDir,
		state:    lib.ProcessStateRunning,
		start:    time.Now(),
		finished: make(chan struct{}),
		stdout:   output_storage.New(),
		stderr:   output_storage.New(),
	}

	var pumps sync.WaitGroup
	for slot, storage := range map[int]*output_storage.OutputStorage{1: entry.stdout, 2: entry.stderr} {
		pipe := pipeAt(proc, slot)
		if pipe == nil || !pipe.CanRead() {
			continue
		}
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			if _, err := storage.ReadFrom(pipe); err != nil {
				log.Debug("output pump stopped", zap.Int("slot", slot), zap.Error(err))
			}
		}()
	}

	go entry.supervise(&pumps, log)

	runner.mu.Lock()
	runner.processes[processId] = entry
	runner.mu.Unlock()

	status := entry.lockAndGetStatus()
	return &StartResult{ID: processId, pid: proc.PID(), Status: &status}, nil
}

func pipeAt(proc *process.Process, slot int) *process.Pipe {
	if slot >= proc.NumSlots() {
		return nil
	}
	return proc.Pipe(slot)
}

// supervise waits for the child and its output, then records the final status.
func (entry *processEntry) supervise(pumps *sync.WaitGroup, log *zap.Logger) {
	status, err := entry.proc.WaitContext(context.Background())
	if err != nil {
		log.Warn("wait failed", zap.Error(err))
	} else {
		log.Debug("process exited", zap.Stringer("status", status))
	}

	// A grandchild may hold the pipes open after the child is gone. Give the
	// pumps a moment to drain, then close the pipes under them.
	drained := make(chan struct{})
	go func() {
		pumps.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(outputDrainTimeout):
		log.Debug("output still open after exit, closing pipes")
	}
	if cerr := entry.proc.Close(); cerr != nil {
		log.Debug("release process", zap.Error(cerr))
	}
	<-drained
	entry.stdout.Close()
	entry.stderr.Close()

	entry.mu.Lock()
	now := time.Now()
	if err == nil {
		entry.exit = &status
	}
	entry.end = &now
	entry.state = lib.ProcessStateStopped
	entry.mu.Unlock()
	close(entry.finished)
}
