// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoMarksDirtyBuilds(t *testing.T) {
	defer func(previous string) { GitDirty = previous }(GitDirty)

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q marks a clean build dirty", Info())
	}

	GitDirty = "true"
	if !strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q misses the dirty marker", Info())
	}
}

func TestFullIncludesToolchain(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) {
		t.Errorf("Full() = %q does not start with Info()", full)
	}
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q misses the Go version", full)
	}
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q misses the platform", full)
	}
}

func TestShortIsBareVersion(t *testing.T) {
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}
