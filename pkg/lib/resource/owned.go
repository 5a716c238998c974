// Package resource tracks release obligations for OS resources.
package resource

import (
	"errors"
	"sync"
)

// Owned holds a value together with the action that releases it. The action runs
// at most once: on Release, or never if ownership is given away with Take or
// Forfeit first.
type Owned[T any] struct {
	mu      sync.Mutex
	value   T
	release func(T) error
	done    bool
}

// Own wraps value. A nil release makes Release a no-op.
func Own[T any](value T, release func(T) error) *Owned[T] {
	return &Owned[T]{value: value, release: release}
}

// Value returns the wrapped value without affecting ownership.
func (o *Owned[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Released reports whether the wrapper no longer owns its value.
func (o *Owned[T]) Released() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Release runs the release action if it has not run and ownership was not
// transferred. Later calls return nil.
func (o *Owned[T]) Release() error {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return nil
	}
	o.done = true
	release, value := o.release, o.value
	o.release = nil
	o.mu.Unlock()

	if release == nil {
		return nil
	}
	return release(value)
}

// Take hands the raw value to the caller, who now bears the release obligation.
// The wrapper is marked finalized. ok is false if it had already been released or
// taken.
func (o *Owned[T]) Take() (value T, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return value, false
	}
	o.done = true
	o.release = nil
	return o.value, true
}

// Forfeit drops the release obligation without running it.
func (o *Owned[T]) Forfeit() {
	o.Take()
}

// Group collects release actions and runs them in reverse order of registration.
// The zero value is ready to use.
type Group struct {
	mu      sync.Mutex
	actions []func() error
}

// Add registers a release action.
func (g *Group) Add(release func() error) {
	g.mu.Lock()
	g.actions = append(g.actions, release)
	g.mu.Unlock()
}

// Release runs every registered action, newest first, and joins their errors.
// The group is empty afterwards.
func (g *Group) Release() error {
	g.mu.Lock()
	actions := g.actions
	g.actions = nil
	g.mu.Unlock()

	var errs []error
	for i := len(actions) - 1; i >= 0; i-- {
		if err := actions[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disarm forgets every registered action without running it.
func (g *Group) Disarm() {
	g.mu.Lock()
	g.actions = nil
	g.mu.Unlock()
}
