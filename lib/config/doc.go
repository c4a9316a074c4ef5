// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Altarc.
//
// Configuration is loaded from a single file specified by either the
// ALTARC_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${ALTARC_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Logging, Selection, Overlay
//   - [Default] -- returns a Config with stock defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other Altarc packages.
package config
