// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package syncs contains the critical-state container and types built on it.
//
// A [CriticalState] keeps a value and the lock guarding it in one heap
// allocation and only hands the value out inside a critical region:
//
//	counter := syncs.NewCriticalState(0)
//	defer counter.Close()
//	counter.WithLock(func(n *int) { *n++ })
//	fmt.Println(counter.Read())
//
// The lock is the platform primitive chosen at build time by package
// platformlock.
package syncs

import (
	"log"
	"time"

	"critstate.dev/envknob"
	"critstate.dev/types/logger"
)

// debugSlowRegion, if positive, makes every critical region time itself
// and log when the lock was held longer than this.
var debugSlowRegion = envknob.RegisterDuration("CRITSTATE_DEBUG_SLOW_REGION")

// logf is where slow-region reports go.
var logf logger.Logf = logger.WithPrefix(logger.RateLimitedFn(log.Printf, 10*time.Second, 3, 64), "syncs: ")
