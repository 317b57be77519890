// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package platformlock

// Placeholder stands in for a lock on platforms with no supported
// primitive. It is NOT a lock: Acquire returns immediately without
// excluding anyone, and every method is a no-op.
//
// Sharing a value guarded by a Placeholder between goroutines is a data
// race. It is only selected as [Native] when a build explicitly opts in
// with the critstate_unsound_fallback tag.
type Placeholder struct{}

// Init implements Primitive. It does nothing.
func (*Placeholder) Init() {}

// Acquire implements Primitive. It does not block and does not exclude.
func (*Placeholder) Acquire() {}

// Release implements Primitive. It does nothing.
func (*Placeholder) Release() {}

// Destroy implements Primitive. It does nothing.
func (*Placeholder) Destroy() {}
