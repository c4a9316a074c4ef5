// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package lograte rate-limits repeated log events on the hot load
// path. A broken alternate asset is requested every time its stage
// streams; without limiting, one bad payload turns the log into a
// storm of identical lines.
package lograte

import (
	"sync"
	"time"

	"github.com/altarc/altarc/lib/clock"
)

// Limiter allows one event per key per interval. The critical
// section is a single map access — safe on the load path.
type Limiter[K comparable] struct {
	clock    clock.Clock
	interval time.Duration
	capacity int

	mu   sync.Mutex
	seen map[K]time.Time
}

// New creates a Limiter. capacity bounds the tracked key set; when
// full, expired entries are pruned, and if every entry is still live
// the oldest behavior degrades to allowing the event (never to
// blocking or allocating without bound).
func New[K comparable](c clock.Clock, interval time.Duration, capacity int) *Limiter[K] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Limiter[K]{
		clock:    c,
		interval: interval,
		capacity: capacity,
		seen:     make(map[K]time.Time),
	}
}

// Allow reports whether an event for key should be logged now, and
// records it if so.
func (l *Limiter[K]) Allow(key K) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.seen[key]; ok && now.Sub(last) < l.interval {
		return false
	}

	if len(l.seen) >= l.capacity {
		for k, last := range l.seen {
			if now.Sub(last) >= l.interval {
				delete(l.seen, k)
			}
		}
		if len(l.seen) >= l.capacity {
			// Every tracked key is live; let the event through
			// without tracking rather than evicting a live entry.
			return true
		}
	}

	l.seen[key] = now
	return true
}
