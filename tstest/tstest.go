// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package tstest provides utilities for use in unit tests.
package tstest

import (
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// Replace replaces the value of target with val.
// The old value is restored when the test ends.
func Replace[T any](t testing.TB, target *T, val T) {
	t.Helper()
	if target == nil {
		t.Fatalf("Replace: nil pointer")
		panic("unreachable") // pacify staticcheck
	}
	old := *target
	t.Cleanup(func() {
		*target = old
	})

	*target = val
}

// GetSeed gets the current global random test seed.
// By default, this is based on the current time.
// It can be overridden with the CRITSTATE_TEST_SEED environment variable.
// The chosen seed is logged so failures can be reproduced.
func GetSeed(t testing.TB) int64 {
	t.Helper()
	var seed int64
	if s := os.Getenv("CRITSTATE_TEST_SEED"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			t.Fatalf("invalid CRITSTATE_TEST_SEED %q: %v", s, err)
		}
		seed = v
	} else {
		seed = time.Now().UnixNano()
	}
	t.Logf("using random seed %d; set CRITSTATE_TEST_SEED=%d to reproduce", seed, seed)
	return seed
}

// Rand returns a *rand.Rand seeded from GetSeed.
func Rand(t testing.TB) *rand.Rand {
	t.Helper()
	seed := uint64(GetSeed(t))
	return rand.New(rand.NewPCG(seed, seed>>32|1))
}
