// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package altregistry

import (
	"strings"
	"testing"
)

func TestParseManifestJSONC(t *testing.T) {
	manifest, err := ParseManifest([]byte(`{
		// Authored by hand; comments and trailing commas allowed.
		"name": "Night",
		"wifi_safe": true,
		"files": [
			{
				"path": "stage/battlefield/normal/model.numdlb",
				"source": "model.numdlb",
				"digest": "` + strings.Repeat("ab", 32) + `",
				"max_size": 4096,
			},
			{"path": "stage/battlefield/normal/param.prc", "redirect": "stage/battlefield/normal_s01/param.prc"},
		],
	}`))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	if manifest.Name != "Night" || !manifest.WifiSafe {
		t.Errorf("manifest header = %+v", manifest)
	}
	if len(manifest.Files) != 2 {
		t.Fatalf("Files = %d, want 2", len(manifest.Files))
	}
	if manifest.Files[0].MaxSize != 4096 {
		t.Errorf("MaxSize = %d, want 4096", manifest.Files[0].MaxSize)
	}
}

func TestParseManifestRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no files", `{"name": "Empty"}`},
		{"missing path", `{"files": [{"source": "a.bin"}]}`},
		{"source and redirect", `{"files": [{"path": "stage/x/a.bin", "source": "a.bin", "redirect": "stage/x/b.bin"}]}`},
		{"neither source nor redirect", `{"files": [{"path": "stage/x/a.bin"}]}`},
		{"escaping source", `{"files": [{"path": "stage/x/a.bin", "source": "../../etc/passwd"}]}`},
		{"absolute source", `{"files": [{"path": "stage/x/a.bin", "source": "/etc/passwd"}]}`},
		{"short digest", `{"files": [{"path": "stage/x/a.bin", "source": "a.bin", "digest": "abcd"}]}`},
		{"non-hex digest", `{"files": [{"path": "stage/x/a.bin", "source": "a.bin", "digest": "` + strings.Repeat("zz", 32) + `"}]}`},
		{"not json", `{]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tc.body)); err == nil {
				t.Errorf("ParseManifest accepted %s", tc.name)
			}
		})
	}
}
