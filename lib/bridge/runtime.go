// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/archive"
	"github.com/altarc/altarc/lib/asset"
	"github.com/altarc/altarc/lib/clock"
	"github.com/altarc/altarc/lib/config"
	"github.com/altarc/altarc/lib/intercept"
	"github.com/altarc/altarc/lib/selection"
)

// Runtime is the assembled substitution mod: index, registry,
// selection, and engine, plus the current-stage attribution state.
type Runtime struct {
	cfg    *config.Config
	logger *slog.Logger

	index     *archive.Index
	registry  *altregistry.Registry
	selection *selection.State
	engine    *intercept.Engine

	// stageMu guards current. Written on StageChange, read on every
	// unattributed load.
	stageMu sync.RWMutex
	current asset.StageID

	// persistMu serializes snapshot writes so a slow disk cannot
	// interleave two rewrites.
	persistMu sync.Mutex
	statePath string
}

var (
	instanceMu sync.Mutex
	instance   *Runtime
)

// Init assembles the runtime from cfg and installs it on lp. It may
// be called once per process; a second call fails. On any error the
// load path is left untouched and the host keeps loading original
// assets.
func Init(cfg *config.Config, logger *slog.Logger, lp *intercept.LoadPath) (*Runtime, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return nil, errors.New("bridge: runtime already initialized")
	}

	runtime, err := newRuntime(cfg, logger, lp)
	if err != nil {
		return nil, err
	}

	instance = runtime
	return runtime, nil
}

// Instance returns the runtime created by Init, or nil before a
// successful Init.
func Instance() *Runtime {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

func newRuntime(cfg *config.Config, logger *slog.Logger, lp *intercept.LoadPath) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bridge: invalid config: %w", err)
	}

	index, err := archive.Open(cfg.Paths.Archive)
	if err != nil {
		return nil, fmt.Errorf("bridge: opening archive: %w", err)
	}

	registry, err := altregistry.Build(index, logger, cfg.Paths.AltRoots...)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("bridge: scanning alternates: %w", err)
	}

	state := selection.New(registry)
	state.SetOnline(cfg.Selection.Online)

	switch slots, online, err := readSnapshot(cfg.Paths.State); {
	case err == nil:
		state.Restore(slots)
		state.SetOnline(online)
	case errors.Is(err, os.ErrNotExist):
		// First boot: everything stays at slot 0.
	default:
		// A corrupt snapshot must not block startup.
		logger.Warn("discarding unreadable selection snapshot",
			"path", cfg.Paths.State, "error", err)
	}

	if cfg.Selection.RandomizeOnBoot {
		for _, stage := range registry.Stages() {
			state.Randomize(stage)
		}
	}

	runtime := &Runtime{
		cfg:       cfg,
		logger:    logger,
		index:     index,
		registry:  registry,
		selection: state,
		statePath: cfg.Paths.State,
	}

	runtime.engine = intercept.NewEngine(registry, state, runtime.attribute, logger, clock.Real())
	if err := runtime.engine.Install(lp); err != nil {
		index.Close()
		return nil, fmt.Errorf("bridge: installing engine: %w", err)
	}

	logger.Info("altarc runtime installed",
		"stages", len(registry.Stages()),
		"archive_entries", index.EntryCount())

	return runtime, nil
}

// attribute supplies the stage for load requests the host did not
// attribute itself: the stage most recently reported via StageChange.
func (r *Runtime) attribute(intercept.Request) asset.StageID {
	r.stageMu.RLock()
	defer r.stageMu.RUnlock()
	return r.current
}

// CurrentStage returns the stage most recently reported by the host,
// or the empty StageID outside any stage.
func (r *Runtime) CurrentStage() asset.StageID {
	r.stageMu.RLock()
	defer r.stageMu.RUnlock()
	return r.current
}

// SetStage records the active stage directly.
func (r *Runtime) SetStage(stage asset.StageID) {
	r.stageMu.Lock()
	r.current = stage
	r.stageMu.Unlock()
}

// StageChange records the active stage from the folder hash the host
// reports on a stage transition. An unrecognized folder clears the
// current stage, so subsequent loads pass through untouched.
func (r *Runtime) StageChange(folder asset.Hash) {
	stage, ok := r.index.StageForFolder(folder)
	if !ok {
		r.logger.Debug("stage change to unknown folder", "folder", folder)
		stage = ""
	}
	r.SetStage(stage)
}

// SetAlt activates a slot for a stage and returns the slot actually
// committed after clamping.
func (r *Runtime) SetAlt(stage asset.StageID, slot int) int {
	committed := r.selection.Set(stage, slot)
	r.persist()
	return committed
}

// CycleAlt advances a stage to its next discovered alternate and
// returns the new slot.
func (r *Runtime) CycleAlt(stage asset.StageID) int {
	committed := r.selection.Cycle(stage)
	r.persist()
	return committed
}

// RandomizeAlt picks a random eligible alternate for a stage and
// returns the chosen slot.
func (r *Runtime) RandomizeAlt(stage asset.StageID) int {
	committed := r.selection.Randomize(stage)
	r.persist()
	return committed
}

// SetOnline records the session mode. Online sessions restrict
// Randomize to wifi-safe alternates.
func (r *Runtime) SetOnline(online bool) {
	r.selection.SetOnline(online)
	r.persist()
}

// GetAlt returns the active slot for a stage.
func (r *Runtime) GetAlt(stage asset.StageID) int {
	return r.selection.Get(stage)
}

// ListAlts returns the discovered alternates for a stage in slot
// order.
func (r *Runtime) ListAlts(stage asset.StageID) []altregistry.Slot {
	return r.registry.AlternatesFor(stage)
}

// SlotInfo returns the metadata for one discovered alternate.
func (r *Runtime) SlotInfo(stage asset.StageID, slot int) (altregistry.Slot, bool) {
	return r.registry.SlotInfo(stage, slot)
}

// Stages returns every stage with at least one discovered alternate.
func (r *Runtime) Stages() []asset.StageID {
	return r.registry.Stages()
}

// Online reports the current session mode.
func (r *Runtime) Online() bool {
	return r.selection.Online()
}

// Selection exposes the live selection state to UI surfaces.
func (r *Runtime) Selection() *selection.State {
	return r.selection
}

// Registry exposes the immutable alternate registry.
func (r *Runtime) Registry() *altregistry.Registry {
	return r.registry
}

// persist rewrites the selection snapshot. Failures are logged and
// swallowed: losing persistence must never disturb the session.
func (r *Runtime) persist() {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	err := writeSnapshot(r.statePath, r.selection.Online(), r.selection.Snapshot())
	if err != nil {
		r.logger.Warn("selection snapshot not persisted",
			"path", r.statePath, "error", err)
	}
}

// Close persists the final selection state and releases the archive.
// The engine stays installed; the load path keeps serving through the
// registry until the process exits.
func (r *Runtime) Close() error {
	r.persist()
	return r.index.Close()
}
