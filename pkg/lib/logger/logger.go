// Package logger builds the zap logger used by the prn binary and installs it in
// the library packages.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/output_storage"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
	"github.com/SanjoDeundiak/procspawn/pkg/lib/runner"
)

// LevelEnv names the environment variable holding the default level.
const LevelEnv = "PRN_LOG_LEVEL"

// Options selects where and how much to log.
type Options struct {
	// Path is the log file. Empty logs to Fallback instead.
	Path string
	// Level is a zap level name. Empty uses $PRN_LOG_LEVEL, then "warn".
	Level string
	// Fallback receives logs when Path is empty. Nil discards them.
	Fallback io.Writer
}

// New builds a logger from opts. File output is plain text with rotation.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var ws zapcore.WriteSyncer
	switch {
	case opts.Path != "":
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, err
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	case opts.Fallback != nil:
		ws = zapcore.AddSync(opts.Fallback)
	default:
		return zap.NewNop(), nil
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// ParseLevel resolves a level name, falling back to $PRN_LOG_LEVEL and then warn.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		name = os.Getenv(LevelEnv)
	}
	if name == "" {
		return zapcore.WarnLevel, nil
	}
	return zapcore.ParseLevel(strings.ToLower(name))
}

// Install hands l to every library package. A nil l silences them again.
func Install(l *zap.Logger) {
	process.SetLogger(l)
	runner.SetLogger(l)
	output_storage.SetLogger(l)
}
