// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package platformlock

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex is a mutex built on the Linux futex(2) system call.
//
// The lock word moves between unlocked, locked and contended. Waiters sleep
// in the kernel only while the word reads contended, and Release issues a
// wake only when it observes contended, so the uncontended path never
// enters the kernel. Waiter order is whatever the kernel provides.
//
// Its internal operations report failures as errors; the Primitive
// methods turn any such error into a fatal failure.
//
// The zero value is an unlocked lock.
type Futex struct {
	state uint32 // atomic; futex word
}

// futex(2) operations. The private variants skip the cross-process hash
// because the word never lives in shared memory.
const (
	futexPrivateFlag = 128
	futexWaitPrivate = 0 | futexPrivateFlag
	futexWakePrivate = 1 | futexPrivateFlag
)

func futexWait(addr *uint32, val uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWaitPrivate, uintptr(val), 0, 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		// EAGAIN: the word changed before we slept. EINTR: signal.
		// Either way the caller re-examines the word.
		return nil
	}
	return fmt.Errorf("futex wait: %w", errno)
}

func futexWake(addr *uint32, n int) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWakePrivate, uintptr(n), 0, 0, 0)
	if errno != 0 {
		return fmt.Errorf("futex wake: %w", errno)
	}
	return nil
}

func (m *Futex) init() error {
	switch atomic.LoadUint32(&m.state) {
	case stateLocked, stateContended:
		return ErrLocked
	}
	atomic.StoreUint32(&m.state, stateUnlocked)
	return nil
}

func (m *Futex) lock() error {
	if atomic.CompareAndSwapUint32(&m.state, stateUnlocked, stateLocked) {
		return nil
	}
	for {
		switch atomic.LoadUint32(&m.state) {
		case stateUnlocked:
			// We may have been woken with other waiters still asleep,
			// so take the lock as contended to make Release wake them.
			if atomic.CompareAndSwapUint32(&m.state, stateUnlocked, stateContended) {
				return nil
			}
			continue
		case stateLocked:
			if !atomic.CompareAndSwapUint32(&m.state, stateLocked, stateContended) {
				continue
			}
		case stateContended:
		case stateDestroyed:
			return ErrDestroyed
		}
		if err := futexWait(&m.state, stateContended); err != nil {
			return err
		}
	}
}

func (m *Futex) unlock() error {
	for {
		switch s := atomic.LoadUint32(&m.state); s {
		case stateUnlocked:
			return ErrNotLocked
		case stateDestroyed:
			return ErrDestroyed
		case stateLocked, stateContended:
			if !atomic.CompareAndSwapUint32(&m.state, s, stateUnlocked) {
				continue
			}
			if s == stateContended {
				return futexWake(&m.state, 1)
			}
			return nil
		}
	}
}

func (m *Futex) destroy() error {
	if atomic.CompareAndSwapUint32(&m.state, stateUnlocked, stateDestroyed) {
		return nil
	}
	if atomic.LoadUint32(&m.state) == stateDestroyed {
		return ErrDestroyed
	}
	return ErrLocked
}

// Init implements Primitive.
func (m *Futex) Init() {
	if err := m.init(); err != nil {
		fatal("platformlock: Futex.Init: %v", err)
	}
}

// Acquire implements Primitive.
func (m *Futex) Acquire() {
	if err := m.lock(); err != nil {
		fatal("platformlock: Futex.Acquire: %v", err)
	}
}

// Release implements Primitive.
func (m *Futex) Release() {
	if err := m.unlock(); err != nil {
		fatal("platformlock: Futex.Release: %v", err)
	}
}

// Destroy implements Primitive.
func (m *Futex) Destroy() {
	if err := m.destroy(); err != nil {
		fatal("platformlock: Futex.Destroy: %v", err)
	}
}

// Locked reports whether the lock is currently held. The answer may be
// stale by the time it's returned; use it only for assertions.
func (m *Futex) Locked() bool {
	switch atomic.LoadUint32(&m.state) {
	case stateLocked, stateContended:
		return true
	}
	return false
}
