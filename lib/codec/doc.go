// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Altarc's standard CBOR encoding configuration.
//
// Altarc uses two serialization formats with a clear boundary:
//
//   - JSONC for authored content: alt.jsonc manifests and the runtime
//     configuration file, edited by mod authors and players.
//   - CBOR for machine state: the persisted selection snapshot and
//     anything else the runtime writes for itself.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Altarc package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, so rewriting a snapshot with unchanged selections is a no-op
// at the byte level.
//
// For buffer-oriented operations (state files):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Unknown fields are ignored on decode, so older runtimes can read
// snapshots written by newer ones.
package codec
