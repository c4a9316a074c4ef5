// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects [Real]; tests inject [Fake] and advance it deterministically.
// Anything that reads the wall clock — the hot-path log rate limiter,
// the picker's refresh ticker — takes a Clock instead of calling the
// time package directly.
package clock

import "time"

// Clock provides the time operations altarc uses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks on C at the given
	// interval. Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop when
// done. Stop does not close C.
type Ticker struct {
	// C delivers ticks. Buffered with capacity 1; ticks are dropped,
	// not queued, when the consumer falls behind.
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker.
func (t *Ticker) Stop() { t.stopFunc() }
