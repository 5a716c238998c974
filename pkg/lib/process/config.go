package process

import "strings"

// EnvVar is one entry of a replacement environment.
type EnvVar struct {
	Key   string
	Value string
}

func (e EnvVar) String() string {
	return e.Key + "=" + e.Value
}

// ParseEnvVar splits "KEY=VALUE". A missing '=' yields an empty value.
func ParseEnvVar(s string) EnvVar {
	k, v, _ := strings.Cut(s, "=")
	return EnvVar{Key: k, Value: v}
}

// SpawnConfig describes a spawn request. The zero value is the canonical empty
// config: no program, no arguments, inherited environment and working directory,
// no descriptor slots, no identity change, not detached. Nothing is validated
// until Spawn.
type SpawnConfig struct {
	// Program is the path or name of the executable. Names without a path
	// separator are looked up in PATH.
	Program string

	// Args are the arguments, not including the program name.
	Args []string

	// Env replaces the child's environment when non-nil, even if empty. A nil Env
	// inherits the parent's environment. Repeated keys resolve to the last value.
	Env []EnvVar

	// Dir is the child's working directory. Empty inherits the parent's.
	Dir string

	// Stdio wires descriptor slot i of the child to Stdio[i]. Standard slots
	// missing from the list get the null device; no higher descriptor is opened.
	Stdio []StdioSpec

	// UID and GID, when set, are assumed by the child before the program loads.
	UID *uint32
	GID *uint32

	// Detach starts the child in a new session so it is not signaled with the
	// parent's process group.
	Detach bool
}

// NewSpawnConfig returns the default config for program and args.
func NewSpawnConfig(program string, args ...string) SpawnConfig {
	return SpawnConfig{Program: program, Args: args}
}

// StandardStdio is the common layout: stdin discarded, stdout and stderr piped
// back to the parent.
func StandardStdio() []StdioSpec {
	return []StdioSpec{Discard(), CreatePipe(false, true), CreatePipe(false, true)}
}

// WithUID returns a copy of c that runs as uid.
func (c SpawnConfig) WithUID(uid uint32) SpawnConfig {
	c.UID = &uid
	return c
}

// WithGID returns a copy of c that runs with group gid.
func (c SpawnConfig) WithGID(gid uint32) SpawnConfig {
	c.GID = &gid
	return c
}

// clone detaches c from slices the caller may keep mutating.
func (c SpawnConfig) clone() SpawnConfig {
	out := c
	out.Args = append([]string(nil), c.Args...)
	if c.Env != nil {
		out.Env = append(make([]EnvVar, 0, len(c.Env)), c.Env...)
	}
	out.Stdio = append([]StdioSpec(nil), c.Stdio...)
	if c.UID != nil {
		uid := *c.UID
		out.UID = &uid
	}
	if c.GID != nil {
		gid := *c.GID
		out.GID = &gid
	}
	return out
}

func (c SpawnConfig) environ() []string {
	if c.Env == nil {
		return nil
	}
	env := make([]string, 0, len(c.Env))
	for _, kv := range c.Env {
		env = append(env, kv.String())
	}
	return env
}
