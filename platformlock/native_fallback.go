// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux && !darwin && critstate_unsound_fallback

package platformlock

// Native is the lock backend selected for this platform at build time.
//
// This platform has no supported primitive and the build opted in to the
// unsound fallback: Native does not lock. See [Placeholder].
type Native = Placeholder

// Backend names the Native implementation.
const Backend = "placeholder"

// Sound reports whether Native provides mutual exclusion.
const Sound = false
