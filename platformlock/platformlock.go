// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package platformlock provides the OS-level mutual exclusion primitives
// that back syncs.CriticalState.
//
// Every backend implements [Primitive]. Which one a build uses is decided
// by the target GOOS via build constraints and exposed as the [Native] type
// alias; there is no runtime switch. On Linux, Native is [Futex]. On Darwin
// (including iOS), Native is [Unfair]. Other platforms fail to build unless
// the critstate_unsound_fallback build tag is set, in which case Native is
// [Placeholder], which does not lock at all.
//
// Misuse of a primitive (releasing a lock that isn't held, destroying a
// held or already destroyed lock, acquiring a destroyed lock) is not an
// error the caller can handle. It terminates the process, like the Go
// runtime does for "sync: unlock of unlocked mutex".
package platformlock

import (
	"errors"
	"fmt"
	"log"

	"critstate.dev/types/logger"
	"critstate.dev/util/testenv"
)

// Primitive is the capability shared by all lock backends.
//
// Implementations are used through a pointer and must not be copied after
// first use. None of them are reentrant: calling Acquire while already
// holding the lock deadlocks.
type Primitive interface {
	// Init prepares the lock in place. The lock must not be held.
	Init()
	// Acquire blocks until the caller owns the lock. There is no timeout.
	Acquire()
	// Release gives up ownership. It never fails; misuse is fatal.
	Release()
	// Destroy retires the lock. It must be called exactly once, while
	// the lock is not held.
	Destroy()
}

var (
	_ Primitive = (*Unfair)(nil)
	_ Primitive = (*Placeholder)(nil)
	_ Primitive = (*Native)(nil)
)

// Errors describing lock misuse. They reach the caller only as part of a
// fatal report.
var (
	ErrNotLocked = errors.New("unlock of unlocked mutex")
	ErrLocked    = errors.New("mutex is locked")
	ErrDestroyed = errors.New("use of destroyed mutex")
)

// Lock word values shared by the atomic backends.
const (
	stateUnlocked  uint32 = 0
	stateLocked    uint32 = 1
	stateContended uint32 = 2 // locked, and there may be sleeping waiters
	stateDestroyed uint32 = 0xdead
)

func stateString(s uint32) string {
	switch s {
	case stateUnlocked:
		return "unlocked"
	case stateLocked:
		return "locked"
	case stateContended:
		return "contended"
	case stateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%#x)", s)
}

// fatalf reports an unrecoverable lock failure. It must not return.
var fatalf logger.Logf = log.Fatalf

func fatal(format string, args ...any) {
	fatalf(format, args...)
	panic(fmt.Sprintf(format, args...))
}

// SetFatalfForTest replaces the function used to report fatal lock
// failures until tb is cleaned up. fn must not return normally; tests
// typically make it panic and recover the value.
func SetFatalfForTest(tb interface{ Cleanup(func()) }, fn logger.Logf) {
	testenv.AssertInTest()
	old := fatalf
	fatalf = fn
	tb.Cleanup(func() { fatalf = old })
}
