package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SanjoDeundiak/procspawn/pkg/lib/process"
)

func TestParse_Full(t *testing.T) {
	f, err := Parse([]byte(`
program: /bin/sh
args: ["-c", "echo hi"]
env: ["A=1", "B=two=2"]
dir: /tmp
stdio: [discard, "pipe:w", "inherit:2", "pipe:rw"]
uid: 1000
gid: 100
detach: true
stop_grace: 3s
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.StopGrace != 3*time.Second {
		t.Fatalf("stop_grace = %v", f.StopGrace)
	}

	cfg, err := f.SpawnConfig()
	if err != nil {
		t.Fatalf("SpawnConfig failed: %v", err)
	}
	if cfg.Program != "/bin/sh" || len(cfg.Args) != 2 || cfg.Args[1] != "echo hi" {
		t.Fatalf("unexpected program/args: %q %q", cfg.Program, cfg.Args)
	}
	if cfg.Dir != "/tmp" || !cfg.Detach {
		t.Fatalf("unexpected dir/detach: %q %v", cfg.Dir, cfg.Detach)
	}
	if cfg.UID == nil || *cfg.UID != 1000 || cfg.GID == nil || *cfg.GID != 100 {
		t.Fatalf("unexpected identity: %v %v", cfg.UID, cfg.GID)
	}
	wantEnv := []process.EnvVar{{Key: "A", Value: "1"}, {Key: "B", Value: "two=2"}}
	if len(cfg.Env) != len(wantEnv) || cfg.Env[0] != wantEnv[0] || cfg.Env[1] != wantEnv[1] {
		t.Fatalf("env = %v", cfg.Env)
	}
	wantStdio := []process.StdioSpec{
		process.Discard(), process.CreatePipe(false, true), process.InheritFd(2), process.CreatePipe(true, true),
	}
	if len(cfg.Stdio) != len(wantStdio) {
		t.Fatalf("stdio = %v", cfg.Stdio)
	}
	for i := range wantStdio {
		if cfg.Stdio[i] != wantStdio[i] {
			t.Fatalf("stdio[%d] = %v, want %v", i, cfg.Stdio[i], wantStdio[i])
		}
	}
}

func TestParse_Minimal(t *testing.T) {
	f, err := Parse([]byte("program: /bin/true\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cfg, err := f.SpawnConfig()
	if err != nil {
		t.Fatalf("SpawnConfig failed: %v", err)
	}
	if cfg.Env != nil || cfg.Stdio != nil || cfg.UID != nil || cfg.Dir != "" || cfg.Detach {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"no program":     "args: [x]\n",
		"unknown field":  "program: x\nprogramme: y\n",
		"bad stdio":      "program: x\nstdio: [socket]\n",
		"bad env":        "program: x\nenv: [\"=oops\"]\n",
		"bad grace":      "program: x\nstop_grace: soon\n",
		"negative grace": "program: x\nstop_grace: -1s\n",
		"negative uid":   "program: x\nuid: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, process.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSpawnConfig_EnvModes(t *testing.T) {
	t.Setenv("PRN_CONFIG_TEST", "from-parent")

	lookup := func(env []process.EnvVar, key string) (string, bool) {
		val, found := "", false
		for _, kv := range env {
			if kv.Key == key {
				val, found = kv.Value, true
			}
		}
		return val, found
	}
	load := func(doc string) process.SpawnConfig {
		t.Helper()
		f, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		cfg, err := f.SpawnConfig()
		if err != nil {
			t.Fatalf("SpawnConfig failed: %v", err)
		}
		return cfg
	}

	cfg := load("program: x\nenv: [\"X=$PRN_CONFIG_TEST\"]\n")
	if v, _ := lookup(cfg.Env, "X"); v != "from-parent" {
		t.Fatalf("expansion: X = %q", v)
	}
	if _, ok := lookup(cfg.Env, "PRN_CONFIG_TEST"); ok {
		t.Fatalf("replacement env leaked parent variable")
	}

	cfg = load("program: x\ninherit_env: true\nenv: [\"PRN_CONFIG_TEST=override\"]\n")
	if v, _ := lookup(cfg.Env, "PRN_CONFIG_TEST"); v != "override" {
		t.Fatalf("merged env: last value = %q", v)
	}
	if _, ok := lookup(cfg.Env, "PATH"); !ok && os.Getenv("PATH") != "" {
		t.Fatalf("merged env lost PATH")
	}

	if cfg = load("program: x\ninherit_env: true\n"); cfg.Env != nil {
		t.Fatalf("inherit without entries should leave Env nil, got %v", cfg.Env)
	}

	cfg = load("program: x\ninherit_env: false\n")
	if cfg.Env == nil || len(cfg.Env) != 0 {
		t.Fatalf("expected empty replacement env, got %#v", cfg.Env)
	}
}

func TestLoad_ResolvesDirAgainstFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(path, []byte("program: ls\ndir: sub\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg, err := f.SpawnConfig()
	if err != nil {
		t.Fatalf("SpawnConfig failed: %v", err)
	}
	if want := filepath.Join(dir, "sub"); cfg.Dir != want {
		t.Fatalf("dir = %q, want %q", cfg.Dir, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
