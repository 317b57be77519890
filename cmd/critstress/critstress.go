// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// The critstress command hammers syncs.CriticalState with concurrent
// workers to check mutual exclusion and construct/close churn on the
// current platform's lock backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"critstate.dev/envknob"
	"critstate.dev/platformlock"
	"critstate.dev/syncs"
	"critstate.dev/types/logger"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootArgs struct {
	verbose bool
	quiet   bool
}

var countArgs struct {
	workers int
	iters   int
}

var churnArgs struct {
	workers int
	iters   int
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	printf := func(format string, a ...any) { fmt.Fprintf(stdout, format, a...) }
	logf := logger.Logf(printf)

	rootfs := newFlagSet("critstress")
	rootfs.BoolVar(&rootArgs.verbose, "v", false, "log environment knobs in use before running")
	rootfs.BoolVar(&rootArgs.quiet, "q", false, "print nothing on success; failures are still returned")

	countCmd := &ffcli.Command{
		Name:       "count",
		ShortUsage: "critstress count [-workers N] [-iters M]",
		ShortHelp:  "Increment a shared counter from N goroutines, M times each",
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("count")
			fs.IntVar(&countArgs.workers, "workers", runtime.GOMAXPROCS(0), "number of concurrent goroutines")
			fs.IntVar(&countArgs.iters, "iters", 100000, "increments per goroutine")
			return fs
		})(),
		Options: []ff.Option{ff.WithEnvVarPrefix("CRITSTRESS_COUNT")},
		Exec: func(ctx context.Context, args []string) error {
			return runCount(ctx, logf, countArgs.workers, countArgs.iters)
		},
	}
	churnCmd := &ffcli.Command{
		Name:       "churn",
		ShortUsage: "critstress churn [-workers N] [-iters K]",
		ShortHelp:  "Create, share, mutate and close a CriticalState K times",
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("churn")
			fs.IntVar(&churnArgs.workers, "workers", 4, "goroutines sharing each CriticalState")
			fs.IntVar(&churnArgs.iters, "iters", 10000, "number of CriticalStates to create and close")
			return fs
		})(),
		Options: []ff.Option{ff.WithEnvVarPrefix("CRITSTRESS_CHURN")},
		Exec: func(ctx context.Context, args []string) error {
			return runChurn(ctx, logf, churnArgs.workers, churnArgs.iters)
		},
	}
	backendsCmd := &ffcli.Command{
		Name:       "backends",
		ShortUsage: "critstress backends",
		ShortHelp:  "Print the lock backend selected for this build",
		Exec: func(context.Context, []string) error {
			printf("backend: %s\nsound: %v\ngoos: %s\n", platformlock.Backend, platformlock.Sound, runtime.GOOS)
			return nil
		},
	}

	rootCmd := &ffcli.Command{
		Name:       "critstress",
		ShortUsage: "critstress [-v] [-q] <subcommand> [command flags]",
		ShortHelp:  "Stress the critical-state container.",
		LongHelp: strings.TrimSpace(`
Runs concurrent workloads against syncs.CriticalState using the lock
backend this binary was built with. Set CRITSTATE_DEBUG_SLOW_REGION to
log critical regions held longer than the given duration.
`),
		FlagSet:     rootfs,
		Options:     []ff.Option{ff.WithEnvVarPrefix("CRITSTRESS")},
		Subcommands: []*ffcli.Command{countCmd, churnCmd, backendsCmd},
	}
	rootCmd.Exec = func(context.Context, []string) error {
		fmt.Fprintln(stdout, ffcli.DefaultUsageFunc(rootCmd))
		return flag.ErrHelp
	}
	rootfs.SetOutput(stdout)
	countCmd.FlagSet.SetOutput(stdout)
	churnCmd.FlagSet.SetOutput(stdout)

	if err := rootCmd.Parse(args); err != nil {
		return err
	}
	if rootArgs.quiet {
		logf = logger.Discard
	}
	if rootArgs.verbose {
		envknob.LogCurrent(logf)
	}
	if !platformlock.Sound {
		logf("warning: %s backend does not lock; results are meaningless\n", platformlock.Backend)
	}
	return rootCmd.Run(ctx)
}

func runCount(ctx context.Context, logf logger.Logf, workers, iters int) error {
	if workers < 1 || iters < 1 {
		return fmt.Errorf("workers and iters must be positive; got %d and %d", workers, iters)
	}
	counter := syncs.NewCriticalState(0)
	defer counter.Close()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for i := range iters {
				if i%1024 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				counter.WithLock(func(n *int) { *n++ })
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	got, want := counter.Read(), workers*iters
	logf("count: %d workers x %d iters = %d in %v\n", workers, iters, got, time.Since(start).Round(time.Millisecond))
	if got != want {
		return fmt.Errorf("lost updates: got %d, want %d", got, want)
	}
	return nil
}

func runChurn(ctx context.Context, logf logger.Logf, workers, iters int) error {
	if workers < 1 || iters < 1 {
		return fmt.Errorf("workers and iters must be positive; got %d and %d", workers, iters)
	}
	start := time.Now()
	for i := range iters {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := syncs.NewCriticalState(make([]int, 0, workers))
		var g errgroup.Group
		for w := range workers {
			g.Go(func() error {
				s.WithLock(func(v *[]int) { *v = append(*v, w) })
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.Close()
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		n := syncs.WithCriticalRegion(s, func(v *[]int) int { return len(*v) })
		s.Close()
		if n != workers {
			return fmt.Errorf("iteration %d: %d of %d appends landed", i, n, workers)
		}
	}
	logf("churn: %d states x %d workers in %v\n", iters, workers, time.Since(start).Round(time.Millisecond))
	return nil
}
