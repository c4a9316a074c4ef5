// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package intercept

import (
	"log/slog"
	"os"
	"time"

	"github.com/zeebo/blake3"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/asset"
	"github.com/altarc/altarc/lib/clock"
	"github.com/altarc/altarc/lib/lograte"
)

// logInterval is how often a given (stage, hash) failure may log.
const logInterval = 30 * time.Second

// Resolver is the registry surface the engine consults.
type Resolver interface {
	Resolve(stage asset.StageID, slot int, original asset.Hash) (altregistry.Replacement, bool)
}

// SlotReader is the selection surface the engine consults. Get must
// be bounded; it runs on every load.
type SlotReader interface {
	Get(stage asset.StageID) int
}

// Attributor derives the stage for a request the host did not
// attribute itself. May return the empty StageID.
type Attributor func(Request) asset.StageID

// logKey identifies a rate-limited log event.
type logKey struct {
	stage asset.StageID
	hash  asset.Hash
}

// Engine decides, per request, the effective resource to load. It
// holds no mutable state of its own: the registry is immutable and
// selection is read through its own lock.
type Engine struct {
	registry  Resolver
	selection SlotReader
	attribute Attributor

	logger  *slog.Logger
	limiter *lograte.Limiter[logKey]

	// original is the native resolver captured at install time.
	original ResolveFunc
}

// NewEngine creates an engine over the given registry and selection
// state. attribute may be nil when the host always attributes its own
// requests.
func NewEngine(registry Resolver, sel SlotReader, attribute Attributor, logger *slog.Logger, c clock.Clock) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.Real()
	}
	return &Engine{
		registry:  registry,
		selection: sel,
		attribute: attribute,
		logger:    logger,
		limiter:   lograte.New[logKey](c, logInterval, 4096),
	}
}

// Install hooks the engine into the load path. Exactly one install
// may ever happen; the call table is never mutated again afterwards.
func (e *Engine) Install(lp *LoadPath) error {
	original, err := lp.hook(e.serve)
	if err != nil {
		return err
	}
	e.original = original
	return nil
}

// serve is the single fail-open boundary of the whole mod. Whatever
// happens inside the substitution decision — a resolution error, a
// bad payload, a panic — the host gets the original asset through the
// native resolver. Nothing may unwind past this function.
func (e *Engine) serve(request Request) (Result, error) {
	if result, ok := e.substitute(request); ok {
		return result, nil
	}
	return e.original(request)
}

// substitute runs the substitution decision and reports whether a
// replacement result should be served. All failures, including
// panics, come back as "no".
func (e *Engine) substitute(request Request) (result Result, served bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			served = false
			if e.limiter.Allow(logKey{request.Stage, request.Path}) {
				e.logger.Error("panic in substitution, serving original",
					"stage", request.Stage, "path", request.Path, "panic", recovered)
			}
		}
	}()

	stage := request.Stage
	if stage == "" && e.attribute != nil {
		stage = e.attribute(request)
	}
	if stage == "" {
		// Fail open: a load we cannot attribute is not ours to touch.
		return Result{}, false
	}

	slot := e.selection.Get(stage)
	if slot == 0 {
		return Result{}, false
	}

	replacement, ok := e.registry.Resolve(stage, slot, request.Path)
	if !ok {
		// Partial alt coverage: this asset keeps its original.
		return Result{}, false
	}

	if replacement.Redirect != 0 {
		return e.serveRedirect(request, stage, replacement)
	}
	return e.serveExternal(request, stage, replacement)
}

// serveRedirect forwards the request to the native resolver under the
// replacement hash.
func (e *Engine) serveRedirect(request Request, stage asset.StageID, replacement altregistry.Replacement) (Result, bool) {
	redirected := request
	redirected.Path = replacement.Redirect

	result, err := e.original(redirected)
	if err != nil {
		if e.limiter.Allow(logKey{stage, request.Path}) {
			e.logger.Warn("redirect failed, serving original",
				"stage", stage, "path", request.Path,
				"redirect", replacement.Redirect, "error", err)
		}
		return Result{}, false
	}

	result.Source = SourceRedirect
	return result, true
}

// serveExternal reads a loose alternate payload and hands back a
// result shaped identically to a native one. The payload must satisfy
// the call site's metadata contract — matching extension, size within
// bounds, matching digest when declared — or the substitution is
// rejected and the original served.
func (e *Engine) serveExternal(request Request, stage asset.StageID, replacement altregistry.Replacement) (Result, bool) {
	reject := func(reason string, attributes ...any) (Result, bool) {
		if e.limiter.Allow(logKey{stage, request.Path}) {
			attributes = append([]any{
				"stage", stage, "path", request.Path, "payload", replacement.External,
			}, attributes...)
			e.logger.Warn("rejecting alternate payload, serving original: "+reason, attributes...)
		}
		return Result{}, false
	}

	if !request.Ext.IsZero() && asset.HashString(replacement.Ext) != request.Ext {
		return reject("extension mismatch", "expected", replacement.Ext)
	}

	data, err := os.ReadFile(replacement.External)
	if err != nil {
		return reject("read failed", "error", err)
	}

	// The registry seeds MaxSize from the original entry when the
	// manifest declares no cap; zero only for a zero-size original.
	if replacement.MaxSize > 0 && uint32(len(data)) > replacement.MaxSize {
		return reject("payload exceeds size cap",
			"size", len(data), "max_size", replacement.MaxSize)
	}

	if replacement.Digest != nil {
		digest := blake3.Sum256(data)
		if digest != *replacement.Digest {
			return reject("digest mismatch")
		}
	}

	e.logger.Debug("serving alternate payload",
		"stage", stage, "path", request.Path, "size", len(data))
	return Result{
		Data:   data,
		Size:   uint32(len(data)),
		Source: SourceExternal,
	}, true
}
