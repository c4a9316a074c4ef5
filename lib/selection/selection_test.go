// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"sync"
	"testing"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/asset"
)

// fakeSource serves a fixed slot list per stage.
type fakeSource map[asset.StageID][]altregistry.Slot

func (f fakeSource) AlternatesFor(stage asset.StageID) []altregistry.Slot {
	return f[stage]
}

func battlefieldSource() fakeSource {
	return fakeSource{
		"battlefield": {
			{Index: 1, Name: "night", WifiSafe: true},
			{Index: 2, Name: "arena"},
		},
	}
}

func TestGetDefaultsToOriginal(t *testing.T) {
	state := New(battlefieldSource())

	if got := state.Get("battlefield"); got != 0 {
		t.Errorf("Get(battlefield) = %d, want 0", got)
	}
	if got := state.Get("never_seen_stage"); got != 0 {
		t.Errorf("Get(unseen) = %d, want 0", got)
	}
}

func TestSetAndGet(t *testing.T) {
	state := New(battlefieldSource())

	if committed := state.Set("battlefield", 2); committed != 2 {
		t.Errorf("Set = %d, want 2", committed)
	}
	if got := state.Get("battlefield"); got != 2 {
		t.Errorf("Get = %d, want 2", got)
	}
}

func TestSetClamps(t *testing.T) {
	source := fakeSource{
		"battlefield": {{Index: 1}, {Index: 3}},
	}
	state := New(source)

	cases := []struct {
		request, want int
	}{
		{-5, 0},
		{0, 0},
		{1, 1},
		{2, 1}, // gap: snaps down to slot 1
		{3, 3},
		{99, 3},
	}
	for _, tc := range cases {
		if got := state.Set("battlefield", tc.request); got != tc.want {
			t.Errorf("Set(%d) = %d, want %d", tc.request, got, tc.want)
		}
	}

	// A stage with no alternates clamps everything to 0.
	if got := state.Set("end", 7); got != 0 {
		t.Errorf("Set on altless stage = %d, want 0", got)
	}
}

func TestCycleVisitsEverySlotOnce(t *testing.T) {
	state := New(battlefieldSource())

	var visited []int
	for i := 0; i < 3; i++ {
		visited = append(visited, state.Cycle("battlefield"))
	}
	want := []int{1, 2, 0}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("cycle sequence = %v, want %v", visited, want)
		}
	}

	// Restartable: the next revolution is identical.
	if got := state.Cycle("battlefield"); got != 1 {
		t.Errorf("second revolution starts at %d, want 1", got)
	}
}

func TestCycleFromMaxWrapsToOriginal(t *testing.T) {
	state := New(battlefieldSource())
	state.Set("battlefield", 2)

	if got := state.Cycle("battlefield"); got != 0 {
		t.Errorf("Cycle from max slot = %d, want 0", got)
	}
}

func TestCycleOnAltlessStage(t *testing.T) {
	state := New(battlefieldSource())

	if got := state.Cycle("end"); got != 0 {
		t.Errorf("Cycle on altless stage = %d, want 0", got)
	}
}

func TestRandomizeRespectsFlags(t *testing.T) {
	source := fakeSource{
		"battlefield": {
			{Index: 1, WifiSafe: true},
			{Index: 2, WifiSafe: false},
			{Index: 3, WifiSafe: true, Ignore: true},
		},
	}
	state := New(source)

	// Offline: slots 1 and 2 are eligible, 3 never is (ignore).
	state.randIntN = func(n int) int { return n - 1 }
	if got := state.Randomize("battlefield"); got != 2 {
		t.Errorf("offline Randomize = %d, want 2 (last eligible)", got)
	}

	// Online: only the wifi-safe, non-ignored slot 1 remains.
	state.SetOnline(true)
	for pick := 0; pick < 3; pick++ {
		state.randIntN = func(n int) int { return pick % n }
		if got := state.Randomize("battlefield"); got != 1 {
			t.Errorf("online Randomize = %d, want 1", got)
		}
	}
}

func TestRandomizeNoEligibleStaysOriginal(t *testing.T) {
	source := fakeSource{
		"battlefield": {{Index: 1, Ignore: true}},
	}
	state := New(source)
	state.Set("battlefield", 1)

	if got := state.Randomize("battlefield"); got != 0 {
		t.Errorf("Randomize with no eligible slots = %d, want 0", got)
	}
}

func TestConcurrentSetsLeaveOneValue(t *testing.T) {
	state := New(battlefieldSource())

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		slot := 1 + i%2
		wg.Add(1)
		go func() {
			defer wg.Done()
			state.Set("battlefield", slot)
		}()
	}
	wg.Wait()

	got := state.Get("battlefield")
	if got != 1 && got != 2 {
		t.Errorf("Get after concurrent sets = %d, want 1 or 2", got)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	state := New(battlefieldSource())
	state.Set("battlefield", 2)

	snapshot := state.Snapshot()
	if len(snapshot) != 1 || snapshot["battlefield"] != 2 {
		t.Fatalf("Snapshot = %v", snapshot)
	}

	restored := New(battlefieldSource())
	restored.Restore(snapshot)
	if got := restored.Get("battlefield"); got != 2 {
		t.Errorf("restored Get = %d, want 2", got)
	}
}

func TestRestoreClampsStaleSnapshot(t *testing.T) {
	// Snapshot written when battlefield had slot 5; it no longer does.
	state := New(battlefieldSource())
	state.Restore(map[asset.StageID]int{
		"battlefield": 5,
		"removed_stage": 3,
	})

	if got := state.Get("battlefield"); got != 2 {
		t.Errorf("stale slot restored to %d, want clamp to 2", got)
	}
	if got := state.Get("removed_stage"); got != 0 {
		t.Errorf("removed stage restored to %d, want 0", got)
	}
}

func TestSnapshotOmitsOriginals(t *testing.T) {
	state := New(battlefieldSource())
	state.Set("battlefield", 1)
	state.Set("battlefield", 0)

	if snapshot := state.Snapshot(); len(snapshot) != 0 {
		t.Errorf("Snapshot = %v, want empty (slot 0 entries omitted)", snapshot)
	}
}
