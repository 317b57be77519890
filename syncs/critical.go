// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

// CriticalState is a handle to a value of type T that can only be observed
// or changed while holding the lock stored alongside it.
//
// Copies of a CriticalState refer to the same value and lock; pass the
// handle itself to other goroutines to share the state. The zero value is
// not usable; use NewCriticalState.
//
// The lock is not reentrant. Calling any method of a CriticalState from
// inside one of its own critical regions deadlocks, and this is not
// detected.
//
// Go cannot check that T is safe to hand between goroutines, so sharing a
// CriticalState is a promise by the caller: the *T passed into a region
// must not be retained after the region returns, and anything T points to
// must not be mutated elsewhere without its own synchronization. Read
// returns a shallow copy, which shares such references.
type CriticalState[T any] struct {
	b *lockedBuffer[T]
}

// NewCriticalState returns a CriticalState holding initial. The lock and
// value share a single heap allocation.
func NewCriticalState[T any](initial T) CriticalState[T] {
	return CriticalState[T]{newLockedBuffer(initial)}
}

// WithCriticalRegion calls fn with exclusive access to c's value and
// returns fn's result. The lock is released however fn returns; if fn
// panics, the panic continues after the release.
func WithCriticalRegion[T, R any](c CriticalState[T], fn func(*T) R) R {
	start := c.b.enter()
	defer c.b.exit(start)
	return fn(&c.b.value)
}

// WithCriticalRegionErr is like WithCriticalRegion for functions that can
// fail. fn's error is returned unchanged, after the lock is released.
func WithCriticalRegionErr[T, R any](c CriticalState[T], fn func(*T) (R, error)) (R, error) {
	start := c.b.enter()
	defer c.b.exit(start)
	return fn(&c.b.value)
}

// WithLock calls fn with exclusive access to c's value.
func (c CriticalState[T]) WithLock(fn func(*T)) {
	start := c.b.enter()
	defer c.b.exit(start)
	fn(&c.b.value)
}

// Apply replaces c's value with v.
func (c CriticalState[T]) Apply(v T) {
	start := c.b.enter()
	defer c.b.exit(start)
	c.b.value = v
}

// Read returns a copy of c's value.
func (c CriticalState[T]) Read() T {
	start := c.b.enter()
	defer c.b.exit(start)
	return c.b.value
}

// Swap replaces c's value with v and returns the previous value.
func (c CriticalState[T]) Swap(v T) (old T) {
	start := c.b.enter()
	defer c.b.exit(start)
	old, c.b.value = c.b.value, v
	return old
}

// Close destroys c's lock and drops c's reference to its value. The value
// itself is not closed or otherwise finalized; if it owns resources, take
// it out with Swap or Read and release them separately.
//
// Close must be called at most once, and never while a critical region on
// c is in progress; both are fatal. No method of c or its copies may be
// used after Close.
func (c CriticalState[T]) Close() {
	c.b.destroy()
}
