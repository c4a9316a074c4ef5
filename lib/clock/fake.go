// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing. Tickers register
// pending waiters that fire, in deadline order, when Advance moves
// the clock past their deadline.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	deadline time.Time
	interval time.Duration
	channel  chan time.Time
	stopped  bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTicker returns a Ticker that fires as Advance moves time past
// each interval boundary.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		deadline: c.current.Add(d),
		interval: d,
		channel:  make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, ticker)

	return &Ticker{
		C: ticker.channel,
		stopFunc: func() {
			c.mu.Lock()
			ticker.stopped = true
			c.mu.Unlock()
		},
	}
}

// Advance moves the clock forward by d, firing due tickers in
// deadline order. A ticker that falls multiple intervals behind
// fires once per elapsed interval, dropping ticks its consumer does
// not drain (matching the capacity-1 channel of time.Ticker).
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.current.Add(d)
	for {
		fired := false
		for _, ticker := range c.tickers {
			if ticker.stopped || ticker.deadline.After(target) {
				continue
			}
			select {
			case ticker.channel <- ticker.deadline:
			default:
			}
			ticker.deadline = ticker.deadline.Add(ticker.interval)
			fired = true
		}
		if !fired {
			break
		}
	}
	c.current = target
}
