// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package overlay implements the interactive alternate picker: a
// bubbletea model listing every stage with discovered alternates and
// the slot currently active for it. The picker is a pure event
// producer; every mutation goes through the [Backend] interface and
// the authoritative state is read back after each change, so what the
// picker shows is always what the engine serves.
package overlay
