// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package platformlock

// Native is the lock backend selected for this platform at build time.
type Native = Futex

// Backend names the Native implementation.
const Backend = "futex"

// Sound reports whether Native provides mutual exclusion.
const Sound = true
