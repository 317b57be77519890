// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package platformlock

import (
	"runtime"
	"sync/atomic"
	"time"

	"critstate.dev/envknob"
)

// Unfair is a small, fast lock with no ordering guarantee among waiters.
//
// A contended Acquire first yields the processor a number of times
// (CRITSTATE_UNFAIR_SPIN, default 64) and then sleeps with exponential
// backoff capped at a millisecond. A released lock goes to whichever
// waiter's CAS lands first, so a busy goroutine can reacquire repeatedly
// and starve others. There is no priority inheritance.
//
// The zero value is an unlocked lock.
type Unfair struct {
	state uint32 // atomic
}

const (
	defaultUnfairSpin = 64
	maxUnfairBackoff  = time.Millisecond
)

// Init implements Primitive.
func (l *Unfair) Init() {
	if s := atomic.LoadUint32(&l.state); s == stateLocked {
		fatal("platformlock: Unfair.Init: %v", ErrLocked)
	}
	atomic.StoreUint32(&l.state, stateUnlocked)
}

// Acquire implements Primitive.
func (l *Unfair) Acquire() {
	if atomic.CompareAndSwapUint32(&l.state, stateUnlocked, stateLocked) {
		return
	}
	l.acquireSlow()
}

// unfairSpin returns how many times a contended Acquire yields before it
// starts sleeping. CRITSTATE_UNFAIR_SPIN=0 sleeps straight away.
func unfairSpin() int {
	n, ok := envknob.LookupInt("CRITSTATE_UNFAIR_SPIN")
	if !ok {
		return defaultUnfairSpin
	}
	return max(n, 0)
}

func (l *Unfair) acquireSlow() {
	spin := unfairSpin()
	backoff := time.Microsecond
	for i := 0; ; i++ {
		switch atomic.LoadUint32(&l.state) {
		case stateUnlocked:
			if atomic.CompareAndSwapUint32(&l.state, stateUnlocked, stateLocked) {
				return
			}
			continue
		case stateDestroyed:
			fatal("platformlock: Unfair.Acquire: %v", ErrDestroyed)
		}
		if i < spin {
			runtime.Gosched()
			continue
		}
		time.Sleep(backoff)
		backoff = min(2*backoff, maxUnfairBackoff)
	}
}

// Release implements Primitive.
func (l *Unfair) Release() {
	if atomic.CompareAndSwapUint32(&l.state, stateLocked, stateUnlocked) {
		return
	}
	switch s := atomic.LoadUint32(&l.state); s {
	case stateDestroyed:
		fatal("platformlock: Unfair.Release: %v", ErrDestroyed)
	default:
		fatal("platformlock: Unfair.Release: %v (state %s)", ErrNotLocked, stateString(s))
	}
}

// Destroy implements Primitive.
func (l *Unfair) Destroy() {
	if atomic.CompareAndSwapUint32(&l.state, stateUnlocked, stateDestroyed) {
		return
	}
	switch s := atomic.LoadUint32(&l.state); s {
	case stateDestroyed:
		fatal("platformlock: Unfair.Destroy: %v", ErrDestroyed)
	default:
		fatal("platformlock: Unfair.Destroy: %v", ErrLocked)
	}
}

// Locked reports whether the lock is currently held. The answer may be
// stale by the time it's returned; use it only for assertions.
func (l *Unfair) Locked() bool {
	return atomic.LoadUint32(&l.state) == stateLocked
}
