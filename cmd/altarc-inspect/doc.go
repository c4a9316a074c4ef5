// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Altarc-inspect prints the contents of Altarc data files: the stages
// and entries of a packed archive, the alternates discovered under a
// set of alt roots, or a selection snapshot in CBOR diagnostic
// notation.
//
// Usage:
//
//	altarc-inspect --archive <file> [--entries]
//	altarc-inspect --archive <file> --alts <dir> [--alts <dir> ...]
//	altarc-inspect --snapshot <file>
//
// Exit codes:
//
//	0  inspected successfully
//	1  error (malformed archive, unreadable file, bad arguments)
package main
