// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package altregistry

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// ManifestName is the file name of the per-slot manifest.
const ManifestName = "alt.jsonc"

// Manifest is the authored description of one alternate slot. The
// on-disk format is JSONC: JSON extended with // line comments,
// /* block comments */, and trailing commas, so stage authors can
// annotate their override lists.
type Manifest struct {
	// Name is the display name pickers show for this alternate,
	// e.g. "Night" or "Arena".
	Name string `json:"name"`

	// WifiSafe marks the alternate as safe to use in online play
	// (purely cosmetic, no layout changes). Random selection skips
	// non-wifi-safe alternates while the process is online.
	WifiSafe bool `json:"wifi_safe"`

	// Ignore excludes the alternate from random selection. Users can
	// still reach it by cycling or picking it directly.
	Ignore bool `json:"ignore"`

	// Files lists the archive paths this alternate overrides.
	Files []ManifestFile `json:"files"`
}

// ManifestFile describes one override. Exactly one of Source or
// Redirect must be set.
type ManifestFile struct {
	// Path is the archive path being replaced, e.g.
	// "stage/battlefield/normal/model.numdlb".
	Path string `json:"path"`

	// Source is the payload file, relative to the slot folder, that
	// replaces the asset.
	Source string `json:"source,omitempty"`

	// Redirect is an alternative in-archive path to serve instead;
	// the replacement bytes come from the packed archive rather
	// than loose files.
	Redirect string `json:"redirect,omitempty"`

	// Digest is the optional BLAKE3-256 digest (64 hex characters)
	// of the payload file. When present, the engine verifies it
	// before serving the payload and fails open on mismatch.
	Digest string `json:"digest,omitempty"`

	// MaxSize optionally caps the payload size in bytes. A payload
	// exceeding the cap is rejected at load time (fail open). Zero
	// means the original entry's decompressed size bounds apply.
	MaxSize uint32 `json:"max_size,omitempty"`
}

// ParseManifest strips JSONC comments and trailing commas from data
// and unmarshals the result.
func ParseManifest(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)

	var manifest Manifest
	if err := json.Unmarshal(stripped, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// ReadManifest reads and parses the manifest in a slot folder.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	if len(m.Files) == 0 {
		return fmt.Errorf("manifest has no file overrides")
	}
	for i, file := range m.Files {
		if file.Path == "" {
			return fmt.Errorf("file %d: missing path", i)
		}
		hasSource := file.Source != ""
		hasRedirect := file.Redirect != ""
		if hasSource == hasRedirect {
			return fmt.Errorf("file %d (%s): exactly one of source or redirect required", i, file.Path)
		}
		if hasSource && (strings.Contains(file.Source, "..") || strings.HasPrefix(file.Source, "/")) {
			return fmt.Errorf("file %d (%s): source must be relative to the slot folder", i, file.Path)
		}
		if file.Digest != "" {
			if _, err := parseDigest(file.Digest); err != nil {
				return fmt.Errorf("file %d (%s): %w", i, file.Path, err)
			}
		}
	}
	return nil
}

// parseDigest decodes a 64-hex-character BLAKE3-256 digest.
func parseDigest(s string) ([32]byte, error) {
	var digest [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return digest, fmt.Errorf("invalid digest: %w", err)
	}
	if len(raw) != len(digest) {
		return digest, fmt.Errorf("invalid digest: got %d bytes, want %d", len(raw), len(digest))
	}
	copy(digest[:], raw)
	return digest, nil
}
