// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset defines the content-addressing primitives shared by
// every altarc component: the 40-bit path hash used by the game
// archive to identify assets, and stage identifiers derived from
// archive paths.
//
// The hash scheme is fixed by the host archive format and cannot
// change: the low 32 bits are the CRC-32 (IEEE, reflected) of the
// lowercase path string, and bits 32-39 hold the path's byte length
// truncated to 8 bits. Two different paths of the same length can
// collide only if their CRC-32 collides, which the host accepts.
//
// Hashes can be concatenated without access to the original strings
// via [Hash.Concat], which combines the CRC-32 values directly. This
// matters on the interception path, where only hashes are available.
package asset
