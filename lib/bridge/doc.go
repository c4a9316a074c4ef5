// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge owns the process-wide Altarc runtime: it assembles
// the archive index, the alternate registry, the selection state, and
// the interception engine into one [Runtime], and it is the single
// intake for events from the host and from UI surfaces.
//
// Initialization order matters and is fixed: open the archive index,
// scan the alternate roots into a registry, seed selection from the
// persisted snapshot, then install the engine on the load path.
// Anything that fails before the install leaves the load path
// untouched, so a broken setup degrades to the stock game.
//
// Events (SetAlt, CycleAlt, RandomizeAlt, StageChange, SetOnline)
// arrive on arbitrary goroutines. They serialize through the selection
// lock; the persisted snapshot is rewritten after the lock is
// released, and a snapshot write failure is logged, never propagated.
package bridge
