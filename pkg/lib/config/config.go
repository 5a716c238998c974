// Package config reads spawn requests from YAML files.
//
//	program: /bin/sh
//	args: ["-c", "echo $GREETING"]
//	env: ["GREETING=hello"]
//	inherit_env: true
//	dir: ./work
//	stdio: [discard, "pipe:w", "pipe:w"]
//	uid: 1000
//	detach: false
//	stop_grace: 5s
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
)

// File is the on-disk form of a spawn request.
type File struct {
	Program string   `yaml:"program"`
	Args    []string `yaml:"args"`

	// Env entries are KEY=VALUE strings; $VARS in values are expanded from the
	// loading process's environment. Without InheritEnv a present Env replaces
	// the environment, an absent one inherits it.
	Env        []string `yaml:"env"`
	InheritEnv *bool    `yaml:"inherit_env"`

	// Dir is resolved against the directory of the file when relative.
	Dir string `yaml:"dir"`

	Stdio []string `yaml:"stdio"`

	UID *uint32 `yaml:"uid"`
	GID *uint32 `yaml:"gid"`

	Detach    bool          `yaml:"detach"`
	StopGrace time.Duration `yaml:"stop_grace"`

	baseDir string
}

// Load reads and validates the spawn file at path.
func Load(path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve spawn file path: %w", err)
	}
	b, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read spawn file: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	f.baseDir = filepath.Dir(absPath)
	return f, nil
}

// Parse decodes a spawn file. Unknown fields are rejected. Relative directories
// are left relative to the current directory.
func Parse(b []byte) (*File, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)

	var f File
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty spawn file", process.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: decode: %v", process.ErrInvalidConfig, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Program == "" {
		return fmt.Errorf("%w: program is required", process.ErrInvalidConfig)
	}
	if f.StopGrace < 0 {
		return fmt.Errorf("%w: stop_grace must not be negative", process.ErrInvalidConfig)
	}
	for i, s := range f.Stdio {
		if _, err := process.ParseStdioSpec(s); err != nil {
			return fmt.Errorf("%w: stdio[%d]: %v", process.ErrInvalidConfig, i, err)
		}
	}
	for i, kv := range f.Env {
		if process.ParseEnvVar(kv).Key == "" {
			return fmt.Errorf("%w: env[%d]: missing key in %q", process.ErrInvalidConfig, i, kv)
		}
	}
	return nil
}

// SpawnConfig converts the file into a spawn request.
func (f *File) SpawnConfig() (process.SpawnConfig, error) {
	cfg := process.NewSpawnConfig(f.Program, f.Args...)
	cfg.UID = f.UID
	cfg.GID = f.GID
	cfg.Detach = f.Detach

	if f.Dir != "" {
		dir := os.ExpandEnv(f.Dir)
		if !filepath.IsAbs(dir) && f.baseDir != "" {
			dir = filepath.Join(f.baseDir, dir)
		}
		cfg.Dir = filepath.Clean(dir)
	}

	inherit := f.InheritEnv != nil && *f.InheritEnv
	switch {
	case inherit && len(f.Env) == 0:
		// nil Env inherits.
	case inherit:
		cfg.Env = envVars(os.Environ())
		fallthrough
	case f.Env != nil:
		if cfg.Env == nil {
			cfg.Env = make([]process.EnvVar, 0, len(f.Env))
		}
		for _, kv := range f.Env {
			v := process.ParseEnvVar(kv)
			v.Value = os.ExpandEnv(v.Value)
			cfg.Env = append(cfg.Env, v)
		}
	case f.InheritEnv != nil:
		// inherit_env: false without entries clears the environment.
		cfg.Env = []process.EnvVar{}
	}

	if f.Stdio != nil {
		cfg.Stdio = make([]process.StdioSpec, 0, len(f.Stdio))
		for i, s := range f.Stdio {
			spec, err := process.ParseStdioSpec(s)
			if err != nil {
				return process.SpawnConfig{}, fmt.Errorf("%w: stdio[%d]: %v", process.ErrInvalidConfig, i, err)
			}
			cfg.Stdio = append(cfg.Stdio, spec)
		}
	}
	return cfg, nil
}

func envVars(environ []string) []process.EnvVar {
	vars := make([]process.EnvVar, 0, len(environ))
	for _, kv := range environ {
		vars = append(vars, process.ParseEnvVar(kv))
	}
	return vars
}
