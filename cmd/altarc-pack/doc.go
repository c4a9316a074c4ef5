// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Altarc-pack builds a packed alternate-asset archive from a directory
// tree. Every regular file below the input directory becomes an entry
// whose path is relative to that directory, compressed with the
// selected algorithm unless compression would not shrink it. Stages
// are registered automatically from stage/<name>/ path prefixes.
//
// Usage:
//
//	altarc-pack --input <dir> --output <file> [--compression lz4]
//
// Exit codes:
//
//	0  archive written
//	1  error
package main
