// Package process spawns child processes, wires their descriptor slots, and reaps
// them.
//
// A SpawnConfig describes the request. Each entry of SpawnConfig.Stdio maps to the
// descriptor with the same index in the child: slot 0 is stdin, 1 is stdout, 2 is
// stderr, and anything beyond that is passed as an extra inherited descriptor.
// A successful Spawn returns a *Process that owns the child and the parent side of
// every pipe it asked for. The owner must call Close (usually deferred), which
// closes any pipe still open and then waits for the child, so neither descriptors
// nor zombies outlive the handle.
//
// The child is reaped by a background goroutine as soon as it exits. Wait, Done and
// WaitContext only observe the cached result, so calling them more than once is
// safe and never issues a second wait on the operating system.
package process
