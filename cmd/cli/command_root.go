package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/logger"
)

type rootOptions struct {
	logFile  string
	logLevel string
	log      *zap.Logger
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "prn",
		Short:         "Spawn and supervise child processes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.New(logger.Options{Path: opts.logFile, Level: opts.logLevel, Fallback: fallbackSink(opts)})
			if err != nil {
				return err
			}
			opts.log = l
			logger.Install(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "write logs to this file, rotated")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (default $"+logger.LevelEnv+" or warn)")

	root.AddCommand(newRunCmd(opts, false))
	root.AddCommand(newRunCmd(opts, true))

	return root
}

// fallbackSink sends logs to stderr only when a level was asked for explicitly.
func fallbackSink(opts *rootOptions) io.Writer {
	if opts.logLevel == "" && os.Getenv(logger.LevelEnv) == "" {
		return nil
	}
	return os.Stderr
}
