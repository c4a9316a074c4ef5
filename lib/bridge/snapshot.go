// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/altarc/altarc/lib/asset"
	"github.com/altarc/altarc/lib/codec"
)

// snapshotVersion is bumped when the snapshot schema changes shape in
// a way old readers cannot ignore.
const snapshotVersion = 1

// snapshotFile is the on-disk selection snapshot. Stage IDs are plain
// strings so the file stays readable by generic CBOR tooling.
type snapshotFile struct {
	Version int            `cbor:"version"`
	Online  bool           `cbor:"online,omitempty"`
	Slots   map[string]int `cbor:"slots"`
}

// writeSnapshot atomically writes the selection snapshot. The file is
// written to a temporary path in the same directory, fsynced, and
// renamed into place, so readers never see a partial write.
func writeSnapshot(path string, online bool, slots map[asset.StageID]int) error {
	snapshot := snapshotFile{
		Version: snapshotVersion,
		Online:  online,
		Slots:   make(map[string]int, len(slots)),
	}
	for stage, slot := range slots {
		snapshot.Slots[string(stage)] = slot
	}

	data, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling selection snapshot: %w", err)
	}

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary snapshot file: %w", err)
	}

	// Write, sync, close, in that order. If any step fails, remove
	// the temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary snapshot file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary snapshot file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary snapshot file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming snapshot file into place: %w", err)
	}

	// Sync the parent directory so the rename survives power loss
	// between the rename and the OS flushing directory metadata.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}

// readSnapshot reads a selection snapshot. When the file does not
// exist, the returned error wraps os.ErrNotExist (testable with
// errors.Is).
func readSnapshot(path string) (map[asset.StageID]int, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	var snapshot snapshotFile
	if err := codec.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("parsing snapshot file %s: %w", path, err)
	}
	if snapshot.Version != snapshotVersion {
		return nil, false, fmt.Errorf("snapshot file %s: unsupported version %d", path, snapshot.Version)
	}

	slots := make(map[asset.StageID]int, len(snapshot.Slots))
	for stage, slot := range snapshot.Slots {
		slots[asset.StageID(stage)] = slot
	}
	return slots, snapshot.Online, nil
}
