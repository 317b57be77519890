// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package platformlock

import (
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestFutexMutualExclusion(t *testing.T) {
	testMutualExclusion(t, new(Futex))
}

func TestFutexErrors(t *testing.T) {
	c := qt.New(t)
	var m Futex

	c.Assert(m.unlock(), qt.ErrorIs, ErrNotLocked)

	c.Assert(m.lock(), qt.IsNil)
	c.Assert(m.Locked(), qt.IsTrue)
	c.Assert(m.init(), qt.ErrorIs, ErrLocked)
	c.Assert(m.destroy(), qt.ErrorIs, ErrLocked)
	c.Assert(m.unlock(), qt.IsNil)
	c.Assert(m.Locked(), qt.IsFalse)

	c.Assert(m.destroy(), qt.IsNil)
	c.Assert(m.destroy(), qt.ErrorIs, ErrDestroyed)
	c.Assert(m.lock(), qt.ErrorIs, ErrDestroyed)
	c.Assert(m.unlock(), qt.ErrorIs, ErrDestroyed)

	c.Assert(m.init(), qt.IsNil)
	c.Assert(m.lock(), qt.IsNil)
	c.Assert(m.unlock(), qt.IsNil)
}

func TestFutexWakesSleeper(t *testing.T) {
	var m Futex
	m.Init()
	m.Acquire()

	acquired := make(chan struct{})
	go func() {
		m.Acquire()
		close(acquired)
		m.Release()
	}()

	// Wait for the waiter to mark the word contended; after that it's
	// asleep in the kernel or about to be.
	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadUint32(&m.state) != stateContended {
		if time.Now().After(deadline) {
			t.Fatal("waiter never marked the lock contended")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case <-acquired:
		t.Fatal("acquired a held lock")
	default:
	}

	m.Release()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was never woken")
	}
	if m.Locked() {
		t.Error("lock still held after both released")
	}
	m.Destroy()
}

func TestFutexMisuseIsFatal(t *testing.T) {
	t.Run("release-unlocked", func(t *testing.T) {
		var m Futex
		wantFatal(t, "Futex.Release: unlock of unlocked mutex", m.Release)
	})
	t.Run("destroy-locked", func(t *testing.T) {
		var m Futex
		m.Acquire()
		wantFatal(t, "Futex.Destroy: mutex is locked", m.Destroy)
	})
	t.Run("double-destroy", func(t *testing.T) {
		var m Futex
		m.Destroy()
		wantFatal(t, "Futex.Destroy: use of destroyed mutex", m.Destroy)
	})
	t.Run("acquire-destroyed", func(t *testing.T) {
		var m Futex
		m.Destroy()
		wantFatal(t, "Futex.Acquire: use of destroyed mutex", m.Acquire)
	})
}

func TestFutexWaitValueMismatch(t *testing.T) {
	// futex(2) returns EAGAIN when the word doesn't hold the expected
	// value; that's a normal retry, not a failure.
	word := stateLocked
	if err := futexWait(&word, stateContended); err != nil {
		t.Fatalf("futexWait = %v; want nil", err)
	}
	if err := futexWake(&word, 1); err != nil {
		t.Fatalf("futexWake = %v; want nil", err)
	}
}
