package runner

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SanjoDeundiak/procspawn/pkg/lib"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/output_storage"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
)

var logger = zap.NewNop()

// SetLogger installs l for the package. A nil l silences logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l.Named("runner")
}

// DefaultStopGrace is how long Stop waits after PleaseExitSignal before it sends
// MustDieSignal.
const DefaultStopGrace = 2 * time.Second

// Runner supervises processes it started, keyed by generated identifiers. It
// records their output for replay and their final status.
type Runner struct {
	mu        sync.RWMutex
	processes map[string]*processEntry
	baseDir   string

	spawner   process.Spawner
	stopGrace time.Duration
}

type processEntry struct {
	id      string
	command lib.Command
	proc    *process.Process
	workDir string

	mu    sync.RWMutex
	state lib.ProcessState
	exit  *process.ExitStatus
	start time.Time
	end   *time.Time

	// finished is closed once the final status is recorded.
	finished chan struct{}

	stdout *output_storage.OutputStorage
	stderr *output_storage.OutputStorage
}

// Option configures a Runner.
type Option func(*Runner)

// WithSpawner replaces the spawner used by Start.
func WithSpawner(s process.Spawner) Option {
	return func(r *Runner) { r.spawner = s }
}

// WithStopGrace sets the grace period used by Stop.
func WithStopGrace(d time.Duration) Option {
	return func(r *Runner) { r.stopGrace = d }
}

// NewRunner creates a Runner with a private scratch directory. Processes started
// without a working directory get their own subdirectory of it.
func NewRunner(opts ...Option) (*Runner, error) {
	baseDir, err := os.MkdirTemp("", "prn-*")
	if err != nil {
		return nil, err
	}

	r := &Runner{
		processes: make(map[string]*processEntry),
		baseDir:   baseDir,
		spawner:   process.DefaultSpawner,
		stopGrace: DefaultStopGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}
