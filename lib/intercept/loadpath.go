// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package intercept

import (
	"fmt"
	"sync/atomic"

	"github.com/altarc/altarc/lib/asset"
)

// Request is one asset-resolution request flowing through the load
// path, mirroring what the host's resolver receives.
type Request struct {
	// Path is the content hash of the requested archive path.
	Path asset.Hash

	// Stage is the stage the request belongs to, when the host's
	// load context provides one. Empty when the request cannot be
	// attributed; unattributable requests always pass through
	// unmodified.
	Stage asset.StageID

	// Ext is the hash of the requested path's extension, e.g.
	// HashString("numdlb"). Zero when the host did not supply one.
	Ext asset.Hash
}

// Source records where a result's bytes came from. Diagnostic only;
// the host sees identical shapes for all three.
type Source uint8

const (
	// SourceOriginal is the native loader serving the requested hash.
	SourceOriginal Source = iota

	// SourceRedirect is the native loader serving a different
	// in-archive hash chosen by an alternate.
	SourceRedirect

	// SourceExternal is a loose alternate payload served by the
	// engine itself.
	SourceExternal
)

func (s Source) String() string {
	switch s {
	case SourceOriginal:
		return "original"
	case SourceRedirect:
		return "redirect"
	case SourceExternal:
		return "external"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Result is what the load path hands back to the host: the asset
// bytes plus the metadata the caller sizes buffers from. Substituted
// results must satisfy the same contract as native ones.
type Result struct {
	Data   []byte
	Size   uint32
	Source Source
}

// ResolveFunc is the signature of the host's asset resolver.
type ResolveFunc func(Request) (Result, error)

// LoadPath models the host's resolution call slot: the function
// every asset load goes through. The host constructs it over the
// native resolver; installing the engine replaces the slot exactly
// once.
type LoadPath struct {
	resolve atomic.Pointer[ResolveFunc]
	hooked  atomic.Bool
}

// NewLoadPath creates a load path backed by the native resolver.
func NewLoadPath(native ResolveFunc) *LoadPath {
	if native == nil {
		panic("intercept: nil native resolver")
	}
	lp := &LoadPath{}
	lp.resolve.Store(&native)
	return lp
}

// Resolve dispatches a request through the current slot. Called by
// the host's streaming threads.
func (lp *LoadPath) Resolve(request Request) (Result, error) {
	return (*lp.resolve.Load())(request)
}

// hook swaps the slot to fn and returns the previous resolver. Only
// one hook may ever be installed; a second attempt fails without
// touching the slot.
func (lp *LoadPath) hook(fn ResolveFunc) (ResolveFunc, error) {
	if !lp.hooked.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("load path is already hooked")
	}
	previous := *lp.resolve.Load()
	lp.resolve.Store(&fn)
	return previous, nil
}
