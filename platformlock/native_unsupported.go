// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux && !darwin && !critstate_unsound_fallback

package platformlock

// There is no lock backend for this GOOS. Rather than silently building
// with a lock that doesn't lock, refuse to compile. Building with
// -tags critstate_unsound_fallback selects Placeholder instead.
var _ = platformlock_has_no_backend_for_this_GOOS_see_critstate_unsound_fallback_tag
