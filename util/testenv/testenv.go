// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package testenv provides utility functions for tests. It does not depend on
// the `testing` package to allow usage in non-test code.
package testenv

import (
	"flag"
	"sync"
)

var inTest = sync.OnceValue(func() bool {
	return flag.Lookup("test.v") != nil
})

// InTest reports whether the current binary is a test binary.
func InTest() bool {
	return inTest()
}

// AssertInTest panics if called outside of a test binary.
func AssertInTest() {
	if !InTest() {
		panic("func called outside of test binary")
	}
}
