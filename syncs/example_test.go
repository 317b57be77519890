// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs_test

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"critstate.dev/syncs"
)

func ExampleCriticalState() {
	hits := syncs.NewCriticalState(map[string]int{})
	defer hits.Close()

	var wg sync.WaitGroup
	for range 3 {
		wg.Go(func() {
			hits.WithLock(func(m *map[string]int) { (*m)["/"]++ })
		})
	}
	wg.Wait()

	fmt.Println(syncs.WithCriticalRegion(hits, func(m *map[string]int) int { return (*m)["/"] }))
	// Output: 3
}

func ExampleWithCriticalRegionErr() {
	port := syncs.NewCriticalState(8080)
	defer port.Close()

	_, err := syncs.WithCriticalRegionErr(port, func(p *int) (int, error) {
		v, err := strconv.Atoi("not-a-port")
		if err != nil {
			return 0, err // *p is left as it was
		}
		*p = v
		return v, nil
	})
	var numErr *strconv.NumError
	fmt.Println(errors.As(err, &numErr), port.Read())
	// Output: true 8080
}
