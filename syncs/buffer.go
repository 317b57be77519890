// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"time"

	"critstate.dev/platformlock"
	"golang.org/x/sys/cpu"
)

// lockedBuffer is the single allocation behind a CriticalState: the lock
// and the value it guards, stored inline next to each other.
//
// The lock is the concrete platformlock.Native type, not a Primitive
// interface, so it lives inside this struct rather than behind a second
// pointer.
type lockedBuffer[T any] struct {
	lock  platformlock.Native
	value T
	_     cpu.CacheLinePad // pad the tail; for small T, keeps the next allocation off the lock's line
}

func newLockedBuffer[T any](initial T) *lockedBuffer[T] {
	b := &lockedBuffer[T]{value: initial}
	b.lock.Init()
	return b
}

// enter acquires b's lock. It returns the time the region started if
// slow-region logging is on, or the zero time.
func (b *lockedBuffer[T]) enter() (start time.Time) {
	b.lock.Acquire()
	if debugSlowRegion() > 0 {
		start = time.Now()
	}
	return start
}

// exit releases b's lock. It must run on every path out of a region,
// including panics, so callers defer it.
func (b *lockedBuffer[T]) exit(start time.Time) {
	var held time.Duration
	if !start.IsZero() {
		held = time.Since(start)
	}
	b.lock.Release()
	if threshold := debugSlowRegion(); threshold > 0 && held > threshold {
		logf("critical region on %T held for %v (threshold %v)", (*T)(nil), held.Round(time.Microsecond), threshold)
	}
}

// destroy tears b down: the lock first (fatal if it's held or already
// gone), then the value is zeroed so the buffer stops referencing it.
// The value is not otherwise touched; copies handed out by Read or Swap
// stay valid. The memory itself goes back to the garbage collector once
// the last handle is dropped.
func (b *lockedBuffer[T]) destroy() {
	b.lock.Destroy()
	var zero T
	b.value = zero
}
