// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

// Package intercept implements the substitution engine: the layer
// that installs itself into the host's asset-resolution call path and
// decides, per load request, whether to serve the original asset or a
// registered alternate.
//
// The engine is a transparent interposition: its results are shaped
// exactly like the native resolver's, and every request it cannot or
// should not substitute is forwarded to the native resolver
// unchanged. Substitution runs synchronously on the host's own
// streaming threads — no goroutines, no unbounded blocking, nothing
// that outlives the load call.
//
// Safety is concentrated in one place: [Engine.serve] wraps the whole
// substitution decision in a recover-and-fail-open boundary, so a bug
// anywhere in the mod degrades to "serve the original asset" instead
// of unwinding into the host. Failures log at most once per (stage,
// hash) per interval to keep repeated loads from flooding the log.
//
// Hook installation happens exactly once, during lifecycle startup;
// a second install is an error and the host's call table is never
// touched again.
package intercept
