// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package selection holds the process-wide record of which alternate
// is active per stage. It is the only mutable shared state in the
// substitution core: written by external events (input combos, script
// calls, picker selections) on arbitrary goroutines, read by the
// interception engine on every load.
//
// All operations take a single mutex with strictly bounded critical
// sections — one map access, no nested locks, no I/O under the lock —
// so [State.Get] can sit on the hot load path. Near-simultaneous
// writers are serialized; the last one to commit wins and is visible
// to every subsequent Get.
package selection

import (
	"math/rand/v2"
	"sync"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/asset"
)

// SlotSource enumerates the discovered alternates for a stage. The
// registry satisfies this; it is immutable after startup, so calling
// it under the selection lock stays bounded.
type SlotSource interface {
	AlternatesFor(stage asset.StageID) []altregistry.Slot
}

// State is the per-stage active-slot record. Entries are created
// lazily on first reference; an unseen stage is slot 0 (original).
type State struct {
	source SlotSource

	mu     sync.Mutex
	slots  map[asset.StageID]int
	online bool

	// randIntN returns a uniform integer in [0, n). Tests inject a
	// deterministic function.
	randIntN func(n int) int
}

// New creates a State over the given slot source with every stage at
// slot 0.
func New(source SlotSource) *State {
	return &State{
		source:   source,
		slots:    make(map[asset.StageID]int),
		randIntN: rand.IntN,
	}
}

// Get returns the active slot for a stage, 0 for stages never
// selected.
func (s *State) Get(stage asset.StageID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[stage]
}

// Set activates a slot for a stage and returns the slot actually
// committed. Out-of-range values are clamped rather than rejected:
// negative input becomes 0, and input that is not a discovered slot
// snaps down to the nearest discovered slot below it (0 when there is
// none). Events must never propagate an error into the host.
func (s *State) Set(stage asset.StageID, slot int) int {
	clamped := s.clamp(stage, slot)

	s.mu.Lock()
	s.slots[stage] = clamped
	s.mu.Unlock()
	return clamped
}

// Cycle advances the stage to its next discovered slot, wrapping to 0
// (original) after the highest one, and returns the committed slot.
// Every discovered slot is visited exactly once per revolution,
// including alternates marked ignore — cycling is explicit user
// paging, not random selection.
func (s *State) Cycle(stage asset.StageID) int {
	slots := s.source.AlternatesFor(stage)

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.slots[stage]
	next := 0
	for _, slot := range slots {
		if slot.Index > current {
			next = slot.Index
			break
		}
	}
	s.slots[stage] = next
	return next
}

// Randomize activates a uniformly random eligible alternate for the
// stage and returns it. Alternates marked ignore are never picked;
// while the process is online, neither are alternates that are not
// wifi-safe. A stage with no eligible alternates stays at slot 0.
func (s *State) Randomize(stage asset.StageID) int {
	slots := s.source.AlternatesFor(stage)

	s.mu.Lock()
	defer s.mu.Unlock()

	eligible := make([]int, 0, len(slots))
	for _, slot := range slots {
		if slot.Ignore {
			continue
		}
		if s.online && !slot.WifiSafe {
			continue
		}
		eligible = append(eligible, slot.Index)
	}

	next := 0
	if len(eligible) > 0 {
		next = eligible[s.randIntN(len(eligible))]
	}
	s.slots[stage] = next
	return next
}

// SetOnline records whether the process is in online play, which
// restricts random selection to wifi-safe alternates.
func (s *State) SetOnline(online bool) {
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
}

// Online reports the recorded online state.
func (s *State) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Snapshot copies the current per-stage slots. Used for persistence;
// the copy is taken under the lock, the write happens outside it.
func (s *State) Snapshot() map[asset.StageID]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[asset.StageID]int, len(s.slots))
	for stage, slot := range s.slots {
		if slot != 0 {
			snapshot[stage] = slot
		}
	}
	return snapshot
}

// Restore seeds the state from a persisted snapshot. Each entry goes
// through the same clamping as Set, so a snapshot written against
// alternates that have since been removed degrades to slot 0 instead
// of activating a dangling selection.
func (s *State) Restore(snapshot map[asset.StageID]int) {
	for stage, slot := range snapshot {
		s.Set(stage, slot)
	}
}

// clamp snaps a requested slot to a discovered one. Called without
// the lock held: the slot source is immutable.
func (s *State) clamp(stage asset.StageID, slot int) int {
	if slot <= 0 {
		return 0
	}
	best := 0
	for _, discovered := range s.source.AlternatesFor(stage) {
		if discovered.Index <= slot && discovered.Index > best {
			best = discovered.Index
		}
	}
	return best
}
