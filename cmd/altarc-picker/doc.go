// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Altarc-picker is the interactive alternate picker run outside the
// game: it loads the configured archive and alt roots, restores the
// persisted selection, and presents the overlay UI in the terminal.
// Changes persist to the selection snapshot immediately, so the next
// game boot picks them up.
//
// With --script, a Lua selection script runs against the same state
// instead of the TUI; see lib/script for the exposed functions.
//
// Configuration comes from --config or the ALTARC_CONFIG environment
// variable, same as the in-process runtime.
package main
