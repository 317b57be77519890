// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package envknob provides access to environment-variable tweakable
// debug settings.
//
// These are primarily knobs used during development, or by users when
// chasing a lock-contention problem. They are not a stable interface
// and may be removed at any time.
//
// None of them select the platform lock backend; that is always a
// build-time decision.
package envknob

import (
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"
)

var (
	mu          sync.Mutex
	set         = map[string]string{}
	regDuration = map[string]*time.Duration{}
)

func noteEnv(k, v string) {
	mu.Lock()
	defer mu.Unlock()
	noteEnvLocked(k, v)
}

func noteEnvLocked(k, v string) {
	if v != "" {
		set[k] = v
	} else {
		delete(set, k)
	}
}

// logf is logger.Logf, but keeping envknob free of imports lets any
// package use it. The alias keeps it assignable.
type logf = func(format string, args ...any)

// LogCurrent logs the currently set environment knobs.
func LogCurrent(logf logf) {
	mu.Lock()
	defer mu.Unlock()

	list := make([]string, 0, len(set))
	for k := range set {
		list = append(list, k)
	}
	sort.Strings(list)
	for _, k := range list {
		logf("envknob: %s=%q", k, set[k])
	}
}

// Setenv changes an environment variable and refreshes any knob registered
// for it. Call it early in main or from tests; it races with readers of a
// registered knob.
func Setenv(envVar, val string) {
	mu.Lock()
	defer mu.Unlock()
	os.Setenv(envVar, val)
	noteEnvLocked(envVar, val)

	if p := regDuration[envVar]; p != nil {
		setDurationLocked(p, envVar, val)
	}
}

// RegisterDuration returns a func that gets the named environment variable
// as a time.Duration, without a map lookup per call. Unset yields zero. It
// assumes that mutations happen via envknob.Setenv.
func RegisterDuration(envVar string) func() time.Duration {
	mu.Lock()
	defer mu.Unlock()
	p, ok := regDuration[envVar]
	if !ok {
		var d time.Duration
		p = &d
		setDurationLocked(p, envVar, os.Getenv(envVar))
		regDuration[envVar] = p
	}
	return func() time.Duration { return *p }
}

func setDurationLocked(p *time.Duration, envVar, val string) {
	noteEnvLocked(envVar, val)
	if val == "" {
		*p = 0
		return
	}
	var err error
	*p, err = time.ParseDuration(val)
	if err != nil {
		log.Fatalf("invalid duration environment variable %s value %q", envVar, val)
	}
}

// LookupInt parses the named environment variable as an int on every
// call, so callers can tell an explicit 0 from unset (ok == false). A
// value that isn't an integer is fatal.
func LookupInt(envVar string) (v int, ok bool) {
	val := os.Getenv(envVar)
	if val == "" {
		return 0, false
	}
	v, err := strconv.Atoi(val)
	if err == nil {
		noteEnv(envVar, val)
		return v, true
	}
	log.Fatalf("invalid integer environment variable %s: %v", envVar, val)
	panic("unreachable")
}
