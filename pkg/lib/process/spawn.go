package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/resource"
)

var logger = zap.NewNop()

// SetLogger installs l for the package. A nil l silences logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l.Named("process")
}

// Spawner starts child processes.
type Spawner interface {
	Spawn(cfg SpawnConfig) (*Process, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(cfg SpawnConfig) (*Process, error)

func (f SpawnerFunc) Spawn(cfg SpawnConfig) (*Process, error) { return f(cfg) }

// DefaultSpawner spawns through the operating system.
var DefaultSpawner Spawner = SpawnerFunc(Spawn)

// Spawn starts the child described by cfg. Errors are *SpawnError values and are
// always reported here, never later by the handle: a missing program, a bad
// working directory, or a failure to assume UID/GID all fail the call. When it
// fails, every descriptor created for the attempt has been closed.
func Spawn(cfg SpawnConfig) (*Process, error) {
	cfg = cfg.clone()
	if cfg.Program == "" {
		return nil, &SpawnError{Op: "validate", Kind: ErrInvalidConfig, Err: errors.New("program is required")}
	}
	if cfg.Dir != "" {
		info, err := os.Stat(cfg.Dir)
		if err == nil && !info.IsDir() {
			err = &os.PathError{Op: "chdir", Path: cfg.Dir, Err: syscall.ENOTDIR}
		}
		if err != nil {
			return nil, &SpawnError{Op: "chdir", Program: cfg.Program, Kind: ErrBadDir, Err: err}
		}
	}

	attr, err := sysProcAttr(cfg)
	if err != nil {
		return nil, newSpawnError("configure", cfg.Program, err)
	}

	// parentSide is released only if the spawn fails; childSide always is.
	var parentSide, childSide resource.Group
	fail := func(op string, err error) (*Process, error) {
		if cerr := childSide.Release(); cerr != nil {
			logger.Debug("close child descriptors", zap.Error(cerr))
		}
		if cerr := parentSide.Release(); cerr != nil {
			logger.Debug("close parent descriptors", zap.Error(cerr))
		}
		logger.Debug("spawn failed", zap.String("program", cfg.Program), zap.String("op", op), zap.Error(err))
		return nil, newSpawnError(op, cfg.Program, err)
	}

	pipes := make([]*Pipe, len(cfg.Stdio))
	childFiles := make([]*os.File, len(cfg.Stdio))
	for i, spec := range cfg.Stdio {
		var child *os.File
		switch {
		case spec.IsPipe():
			parent, c, err := newPipePair(spec)
			if err != nil {
				return fail(fmt.Sprintf("pipe slot %d", i), err)
			}
			pipes[i] = newPipe(parent, spec)
			parentSide.Add(pipes[i].Close)
			child = c
		case spec.IsInherit():
			f, err := dupFd(spec.Fd())
			if err != nil {
				return fail(fmt.Sprintf("inherit slot %d", i), err)
			}
			child = f
		default:
			f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
			if err != nil {
				return fail(fmt.Sprintf("discard slot %d", i), err)
			}
			child = f
		}
		childSide.Add(child.Close)
		childFiles[i] = child
	}

	cmd := exec.Command(cfg.Program, cfg.Args...)
	cmd.Env = cfg.environ()
	cmd.Dir = cfg.Dir
	cmd.SysProcAttr = attr
	for i, f := range childFiles {
		switch i {
		case 0:
			cmd.Stdin = f
		case 1:
			cmd.Stdout = f
		case 2:
			cmd.Stderr = f
		default:
			cmd.ExtraFiles = append(cmd.ExtraFiles, f)
		}
	}

	if err := cmd.Start(); err != nil {
		return fail("start", err)
	}

	// The child holds its own copies now.
	if err := childSide.Release(); err != nil {
		logger.Debug("close child descriptors", zap.Error(err))
	}
	parentSide.Disarm()

	p := newProcess(cmd, cfg, pipes)
	logger.Debug("spawned",
		zap.String("program", cfg.Program),
		zap.Strings("args", cfg.Args),
		zap.Int("pid", p.PID()),
		zap.Int("slots", len(pipes)),
		zap.Bool("detach", cfg.Detach))
	return p, nil
}
