// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive provides the read-only view over the game's packed
// asset archive: a single file containing a stage table, a sorted
// entry table mapping content hashes to data locations, and a data
// region of per-entry compressed payloads.
//
// The archive is opened once at startup and never mutated. [Index] is
// safe for concurrent use by construction: lookups binary-search an
// immutable table and reads go through ReadAt on the underlying file.
// A malformed archive is a fatal startup error — the substitution
// engine refuses to install itself over an archive it cannot trust.
//
// The package also contains [Writer], used by authoring tools and
// tests to produce archives in the same format.
package archive
