// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package envknob

import (
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestRegisterDuration(t *testing.T) {
	c := qt.New(t)
	const k = "CRITSTATE_TEST_KNOB_DURATION"
	t.Setenv(k, "")
	get := RegisterDuration(k)
	c.Assert(get(), qt.Equals, time.Duration(0))

	Setenv(k, "50ms")
	c.Assert(get(), qt.Equals, 50*time.Millisecond)

	Setenv(k, "")
	c.Assert(get(), qt.Equals, time.Duration(0))
}

func TestLookupInt(t *testing.T) {
	c := qt.New(t)
	const k = "CRITSTATE_TEST_LOOKUP_INT"
	t.Setenv(k, "42")
	v, ok := LookupInt(k)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 42)

	t.Setenv(k, "0")
	v, ok = LookupInt(k)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 0)

	t.Setenv(k, "")
	_, ok = LookupInt(k)
	c.Assert(ok, qt.IsFalse)
}

func TestLogCurrent(t *testing.T) {
	c := qt.New(t)
	const k = "CRITSTATE_TEST_LOG_CURRENT"
	t.Setenv(k, "3s")
	c.Assert(RegisterDuration(k)(), qt.Equals, 3*time.Second)

	var lines []string
	LogCurrent(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	})
	c.Assert(lines, qt.Contains, `envknob: CRITSTATE_TEST_LOG_CURRENT="3s"`)
	Setenv(k, "")
}
