// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"strings"
)

// StageID identifies a stage by its archive folder name, e.g.
// "battlefield" for assets under "stage/battlefield/". Stage names
// are stable for the process lifetime. The empty StageID means "not
// attributable to any stage" and causes interception to pass loads
// through unmodified.
type StageID string

// stagePrefix is the archive folder all stage content lives under.
const stagePrefix = "stage"

// Valid reports whether the identifier is non-empty and contains no
// path separators. Stage names are single path components.
func (s StageID) Valid() bool {
	return s != "" && !strings.ContainsAny(string(s), "/\\")
}

// Hash returns the archive hash of the stage name.
func (s StageID) Hash() Hash {
	return HashString(string(s))
}

// FolderHash returns the hash of the stage's archive folder,
// "stage/<name>".
func (s StageID) FolderHash() Hash {
	return HashString(stagePrefix + "/" + string(s))
}

// StageFromPath extracts the stage identifier from an archive path.
// Returns the empty StageID when the path is not stage content.
func StageFromPath(path string) StageID {
	parts := strings.Split(strings.ToLower(path), "/")
	if len(parts) < 2 || parts[0] != stagePrefix || parts[1] == "" {
		return ""
	}
	return StageID(parts[1])
}

// ParseStageID validates a user- or script-supplied stage name.
func ParseStageID(s string) (StageID, error) {
	id := StageID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("invalid stage identifier %q", s)
	}
	return id, nil
}
