// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package platformlock

// Native is the lock backend selected for this platform at build time.
//
// On darwin it is Unfair: uncontended Acquire is a single CAS, but a
// waiter that outlasts its spin budget sleeps, so a contended Acquire can
// return up to a millisecond after the holder releases. Keep critical
// regions short, or lower CRITSTATE_UNFAIR_SPIN only when CPU use matters
// more than handoff latency.
type Native = Unfair

// Backend names the Native implementation.
const Backend = "unfair"

// Sound reports whether Native provides mutual exclusion.
const Sound = true
