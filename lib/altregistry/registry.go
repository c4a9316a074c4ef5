// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package altregistry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/altarc/altarc/lib/archive"
	"github.com/altarc/altarc/lib/asset"
)

// ArchiveView is the part of the archive index the registry needs:
// stage membership for the mapping invariant, and entry lookup to
// validate in-archive redirects.
type ArchiveView interface {
	HasStage(stage asset.StageID) bool
	Lookup(hash asset.Hash) (archive.Entry, bool)
}

// Slot describes one discovered alternate for a stage. Slot 0 (the
// original) is implicit and never appears here.
type Slot struct {
	// Index is the alternate's ordinal, 1-based. Indices come from
	// the slot folder names and may have gaps.
	Index int

	// Name is the display name from the manifest.
	Name string

	// WifiSafe marks the alternate as usable during online play.
	WifiSafe bool

	// Ignore excludes the alternate from random selection.
	Ignore bool

	// Overrides is the number of archive paths the alternate
	// replaces.
	Overrides int
}

// Replacement is the resolution of one (stage, slot, hash) mapping.
// Exactly one of Redirect or External is set.
type Replacement struct {
	// Redirect is a different in-archive hash to serve. Zero when
	// the replacement is an external payload.
	Redirect asset.Hash

	// External is the absolute path of the loose payload file.
	External string

	// Digest is the expected BLAKE3-256 digest of the external
	// payload, nil when the manifest declares none.
	Digest *[32]byte

	// MaxSize caps the external payload size in bytes: the
	// manifest's declared cap, or the original entry's decompressed
	// size when the manifest declares none. Zero for redirects.
	MaxSize uint32

	// Ext is the lowercase extension (without dot) of the replaced
	// archive path, used for the format contract check at load time.
	Ext string
}

type mappingKey struct {
	stage asset.StageID
	slot  int
	hash  asset.Hash
}

// Registry is the immutable alternate-content mapping. Built once at
// startup; all methods are safe for concurrent use by construction.
type Registry struct {
	slots    map[asset.StageID][]Slot
	mappings map[mappingKey]Replacement
}

// slotFolderPattern matches slot folder names: "s" followed by a
// two-or-more digit ordinal, e.g. "s01", "s12".
var slotFolderPattern = regexp.MustCompile(`^s(\d{2,})$`)

// Build scans the given alternate-content roots in order and builds
// the registry. Later roots override earlier ones for conflicting
// (stage, slot, hash) claims — last registered wins, logged.
//
// Discovery never fails the build for content problems: malformed
// slot folders, unreadable manifests, overrides for stages or hashes
// the archive does not know are skipped with a warning. A missing
// root directory contributes nothing.
func Build(arc ArchiveView, logger *slog.Logger, roots ...string) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := &Registry{
		slots:    make(map[asset.StageID][]Slot),
		mappings: make(map[mappingKey]Replacement),
	}

	for _, root := range roots {
		stageDirs, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Info("alternate-content root absent", "root", root)
				continue
			}
			return nil, fmt.Errorf("reading alternate-content root %s: %w", root, err)
		}

		for _, stageDir := range stageDirs {
			if !stageDir.IsDir() {
				continue
			}
			stage, err := asset.ParseStageID(stageDir.Name())
			if err != nil {
				logger.Warn("skipping alternate folder with invalid stage name",
					"root", root, "folder", stageDir.Name(), "error", err)
				continue
			}
			if !arc.HasStage(stage) {
				logger.Warn("skipping alternates for stage unknown to the archive",
					"stage", stage, "root", root)
				continue
			}
			registry.scanStage(arc, logger, filepath.Join(root, stageDir.Name()), stage)
		}
	}

	for stage := range registry.slots {
		sort.Slice(registry.slots[stage], func(i, j int) bool {
			return registry.slots[stage][i].Index < registry.slots[stage][j].Index
		})
	}
	return registry, nil
}

func (r *Registry) scanStage(arc ArchiveView, logger *slog.Logger, stagePath string, stage asset.StageID) {
	slotDirs, err := os.ReadDir(stagePath)
	if err != nil {
		logger.Warn("skipping unreadable stage folder", "stage", stage, "error", err)
		return
	}

	for _, slotDir := range slotDirs {
		if !slotDir.IsDir() {
			continue
		}
		match := slotFolderPattern.FindStringSubmatch(slotDir.Name())
		if match == nil {
			logger.Warn("skipping folder that is not a slot",
				"stage", stage, "folder", slotDir.Name())
			continue
		}
		slotIndex, err := strconv.Atoi(match[1])
		if err != nil || slotIndex == 0 {
			// Slot 0 is the unmodified original; a folder claiming
			// it is an authoring mistake.
			logger.Warn("skipping slot folder with invalid ordinal",
				"stage", stage, "folder", slotDir.Name())
			continue
		}

		slotPath := filepath.Join(stagePath, slotDir.Name())
		manifest, err := ReadManifest(filepath.Join(slotPath, ManifestName))
		if err != nil {
			logger.Warn("skipping slot with unreadable manifest",
				"stage", stage, "slot", slotIndex, "error", err)
			continue
		}

		r.registerSlot(arc, logger, stage, slotIndex, slotPath, manifest)
	}
}

func (r *Registry) registerSlot(arc ArchiveView, logger *slog.Logger, stage asset.StageID, slotIndex int, slotPath string, manifest *Manifest) {
	registered := 0
	for _, file := range manifest.Files {
		original := asset.HashString(file.Path)
		entry, ok := arc.Lookup(original)
		if !ok {
			logger.Warn("override targets a path the archive does not contain",
				"stage", stage, "slot", slotIndex, "path", file.Path)
			continue
		}

		replacement := Replacement{
			MaxSize: file.MaxSize,
			Ext:     pathExt(file.Path),
		}
		switch {
		case file.Redirect != "":
			redirect := asset.HashString(file.Redirect)
			if _, ok := arc.Lookup(redirect); !ok {
				logger.Warn("redirect targets a path the archive does not contain",
					"stage", stage, "slot", slotIndex, "redirect", file.Redirect)
				continue
			}
			if pathExt(file.Redirect) != replacement.Ext {
				logger.Warn("redirect changes the asset format, skipping",
					"stage", stage, "slot", slotIndex,
					"path", file.Path, "redirect", file.Redirect)
				continue
			}
			replacement.Redirect = redirect

		default:
			source := filepath.Join(slotPath, file.Source)
			info, err := os.Stat(source)
			if err != nil || info.IsDir() {
				logger.Warn("payload file missing or unreadable, skipping override",
					"stage", stage, "slot", slotIndex, "source", source, "error", err)
				continue
			}
			if pathExt(file.Source) != replacement.Ext {
				logger.Warn("payload file changes the asset format, skipping",
					"stage", stage, "slot", slotIndex,
					"path", file.Path, "source", file.Source)
				continue
			}
			replacement.External = source
			if replacement.MaxSize == 0 {
				// No explicit cap in the manifest: the original
				// entry's decompressed size bounds the payload.
				replacement.MaxSize = entry.Size
			}
			if file.Digest != "" {
				// Validated by ParseManifest; cannot fail here.
				digest, _ := parseDigest(file.Digest)
				replacement.Digest = &digest
			}
		}

		key := mappingKey{stage: stage, slot: slotIndex, hash: original}
		if _, conflict := r.mappings[key]; conflict {
			logger.Warn("conflicting override, last registered wins",
				"stage", stage, "slot", slotIndex, "path", file.Path)
		}
		r.mappings[key] = replacement
		registered++
	}

	if registered == 0 {
		logger.Warn("alternate registered no overrides, dropping slot",
			"stage", stage, "slot", slotIndex)
		return
	}

	slot := Slot{
		Index:     slotIndex,
		Name:      manifest.Name,
		WifiSafe:  manifest.WifiSafe,
		Ignore:    manifest.Ignore,
		Overrides: registered,
	}
	if slot.Name == "" {
		slot.Name = fmt.Sprintf("s%02d", slotIndex)
	}

	// A later root re-registering the same slot replaces the earlier
	// slot metadata.
	for i, existing := range r.slots[stage] {
		if existing.Index == slotIndex {
			r.slots[stage][i] = slot
			return
		}
	}
	r.slots[stage] = append(r.slots[stage], slot)
}

// AlternatesFor returns the discovered alternates for a stage,
// ordered by slot index. The returned slice is the registry's own
// storage: read-only by contract. Nil when the stage has none.
func (r *Registry) AlternatesFor(stage asset.StageID) []Slot {
	return r.slots[stage]
}

// SlotInfo returns the metadata for one slot of a stage.
func (r *Registry) SlotInfo(stage asset.StageID, slot int) (Slot, bool) {
	for _, s := range r.slots[stage] {
		if s.Index == slot {
			return s, true
		}
	}
	return Slot{}, false
}

// MaxSlot returns the highest discovered slot index for a stage, 0
// when the stage has no alternates.
func (r *Registry) MaxSlot(stage asset.StageID) int {
	slots := r.slots[stage]
	if len(slots) == 0 {
		return 0
	}
	return slots[len(slots)-1].Index
}

// Resolve returns the replacement for an original hash under the
// given stage and slot. Slot 0 never resolves: the original is never
// overridden. A miss means this asset has no override in the chosen
// alternate — expected for partial alts, and the caller serves the
// original.
func (r *Registry) Resolve(stage asset.StageID, slot int, original asset.Hash) (Replacement, bool) {
	if slot == 0 {
		return Replacement{}, false
	}
	replacement, ok := r.mappings[mappingKey{stage: stage, slot: slot, hash: original}]
	return replacement, ok
}

// Stages returns the stages that have at least one alternate, sorted.
func (r *Registry) Stages() []asset.StageID {
	stages := make([]asset.StageID, 0, len(r.slots))
	for stage := range r.slots {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	return stages
}

// pathExt returns the lowercase extension of a path without the dot.
func pathExt(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
