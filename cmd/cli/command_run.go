package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/config"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/runner"
)

type runOptions struct {
	file     string
	dir      string
	env      []string
	clearEnv bool
	uid      uint32
	gid      uint32
	detach   bool
	stdio    []string
	grace    time.Duration
	summary  bool

	inheritStdio bool
	uidSet       bool
	gidSet       bool
}

// exitError carries the child's exit code out of the command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("child exited with code %d", e.code)
}

func newRunCmd(root *rootOptions, inheritStdio bool) *cobra.Command {
	opts := &runOptions{inheritStdio: inheritStdio}

	use, short := "run", "Run a program, relaying its output"
	if inheritStdio {
		use, short = "exec", "Run a program on this terminal's stdin, stdout and stderr"
	}

	cmd := &cobra.Command{
		Use:   use + " [flags] [-- <program> [args...]]",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.file == "" {
				return errors.New("program to run is required; use -- to separate CLI flags from the program, or pass --file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.uidSet = cmd.Flags().Changed("uid")
			opts.gidSet = cmd.Flags().Changed("gid")
			cfg, grace, err := opts.spawnConfig(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("stop-grace") && grace > 0 {
				opts.grace = grace
			}
			return run(cmd, root.log, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "read the spawn request from a YAML file; trailing args replace its program")
	flags.StringVar(&opts.dir, "dir", "", "working directory (default: current directory)")
	flags.StringArrayVarP(&opts.env, "env", "e", nil, "set KEY=VALUE in the child's environment (repeatable)")
	flags.BoolVar(&opts.clearEnv, "clear-env", false, "start from an empty environment instead of inheriting")
	flags.Uint32Var(&opts.uid, "uid", 0, "run as this user id")
	flags.Uint32Var(&opts.gid, "gid", 0, "run with this group id")
	flags.BoolVar(&opts.detach, "detach", false, "start the child in its own session")
	flags.StringArrayVar(&opts.stdio, "stdio", nil, "descriptor slot spec, in slot order: discard, inherit:N, pipe[:r|w|rw] (repeatable)")
	flags.DurationVar(&opts.grace, "stop-grace", runner.DefaultStopGrace, "how long a stopped child gets before it is killed")
	flags.BoolVar(&opts.summary, "summary", false, "print a status table to stderr when the child exits")

	return cmd
}

// spawnConfig merges the spawn file, the trailing args and the flags, in that
// order of precedence from lowest to highest.
func (opts *runOptions) spawnConfig(args []string) (process.SpawnConfig, time.Duration, error) {
	var (
		cfg   process.SpawnConfig
		grace time.Duration
	)
	if opts.file != "" {
		f, err := config.Load(opts.file)
		if err != nil {
			return cfg, 0, err
		}
		if cfg, err = f.SpawnConfig(); err != nil {
			return cfg, 0, err
		}
		grace = f.StopGrace
	}
	if len(args) > 0 {
		cfg.Program, cfg.Args = args[0], args[1:]
	}

	if opts.dir != "" {
		cfg.Dir = opts.dir
	}
	if opts.clearEnv {
		cfg.Env = []process.EnvVar{}
	}
	if len(opts.env) > 0 && cfg.Env == nil {
		for _, kv := range os.Environ() {
			cfg.Env = append(cfg.Env, process.ParseEnvVar(kv))
		}
	}
	for _, kv := range opts.env {
		v := process.ParseEnvVar(kv)
		if v.Key == "" {
			return cfg, 0, fmt.Errorf("%w: bad --env %q", process.ErrInvalidConfig, kv)
		}
		cfg.Env = append(cfg.Env, v)
	}
	if opts.uidSet {
		cfg = cfg.WithUID(opts.uid)
	}
	if opts.gidSet {
		cfg = cfg.WithGID(opts.gid)
	}
	if opts.detach {
		cfg.Detach = true
	}

	if len(opts.stdio) > 0 {
		cfg.Stdio = make([]process.StdioSpec, 0, len(opts.stdio))
		for _, s := range opts.stdio {
			spec, err := process.ParseStdioSpec(s)
			if err != nil {
				return cfg, 0, fmt.Errorf("%w: --stdio: %v", process.ErrInvalidConfig, err)
			}
			cfg.Stdio = append(cfg.Stdio, spec)
		}
	}
	if cfg.Stdio == nil {
		cfg.Stdio = defaultStdio(opts.inheritStdio)
	}

	if cfg.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, 0, err
		}
		cfg.Dir = wd
	}
	return cfg, grace, nil
}

func defaultStdio(inheritAll bool) []process.StdioSpec {
	if inheritAll {
		return []process.StdioSpec{process.InheritFd(0), process.InheritFd(1), process.InheritFd(2)}
	}
	return []process.StdioSpec{process.InheritFd(0), process.CreatePipe(false, true), process.CreatePipe(false, true)}
}

func run(cmd *cobra.Command, log *zap.Logger, cfg process.SpawnConfig, opts *runOptions) error {
	r, err := runner.NewRunner(runner.WithStopGrace(opts.grace))
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warn("runner cleanup", zap.Error(err))
		}
	}()

	res, err := r.Start(cfg)
	if err != nil {
		return err
	}
	log.Info("started", zap.String("id", res.ID), zap.Int("pid", res.Status.PID), zap.String("program", cfg.Program))

	stdout, stderr, err := r.Output(res.ID)
	if err != nil {
		return err
	}
	var relays sync.WaitGroup
	relay := func(ch <-chan []byte, w io.Writer) {
		defer relays.Done()
		for b := range ch {
			if _, err := w.Write(b); err != nil {
				log.Debug("relay output", zap.Error(err))
			}
		}
	}
	relays.Add(2)
	go relay(stdout, cmd.OutOrStdout())
	go relay(stderr, cmd.ErrOrStderr())

	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	finished := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-sigs:
				sig, ok := s.(syscall.Signal)
				if !ok || !forwardSignal(sig, cfg.Detach) {
					continue
				}
				if err := r.Signal(res.ID, int(sig)); err != nil && !errors.Is(err, os.ErrProcessDone) {
					log.Warn("forward signal", zap.Stringer("signal", sig), zap.Error(err))
				}
			case <-finished:
				return
			}
		}
	}()

	st, err := r.Wait(res.ID)
	close(finished)
	relays.Wait()
	if err != nil {
		return err
	}
	log.Info("exited", zap.String("id", res.ID), zap.Any("status", st.Status.Exit))

	if opts.summary {
		printSummary(cmd.ErrOrStderr(), res.ID, st.Command, st.Status)
	}
	if code := exitCode(st.Status.Exit); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// forwardSignal reports whether prn relays sig to the child. A child in prn's
// process group already receives terminal interrupts itself; SIGTERM is aimed at
// prn alone and is always relayed.
func forwardSignal(sig syscall.Signal, detached bool) bool {
	if sig == syscall.SIGINT {
		return detached
	}
	return true
}

// exitCode maps how the child ended onto a shell-style exit code.
func exitCode(exit *process.ExitStatus) int {
	if exit == nil {
		return 1
	}
	if code, ok := exit.Code(); ok {
		return code
	}
	sig, _ := exit.Signal()
	return 128 + sig
}
