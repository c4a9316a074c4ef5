// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/archive"
	"github.com/altarc/altarc/lib/asset"
	"github.com/altarc/altarc/lib/config"
	"github.com/altarc/altarc/lib/intercept"
)

const (
	battlefieldModel    = "stage/battlefield/normal/model.numdlb"
	battlefieldRedirect = "stage/battlefield/normal_s02/model.numdlb"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeArchive builds a minimal packed archive with the battlefield
// stage and both the original and redirect payloads.
func writeArchive(t *testing.T, path string) {
	t.Helper()

	writer := archive.NewWriter()
	if err := writer.Add(battlefieldModel, []byte("original model"), archive.CompressionNone); err != nil {
		t.Fatal(err)
	}
	if err := writer.Add(battlefieldRedirect, []byte("arena model"), archive.CompressionNone); err != nil {
		t.Fatal(err)
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := writer.WriteTo(file); err != nil {
		t.Fatal(err)
	}
}

// writeAltRoot lays out one battlefield slot folder with a redirect
// manifest.
func writeAltRoot(t *testing.T, root string) {
	t.Helper()

	dir := filepath.Join(root, "battlefield", "s02")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"name": "Arena",
		"wifi_safe": true,
		"files": [
			{"path": "` + battlefieldModel + `", "redirect": "` + battlefieldRedirect + `"},
		],
	}`
	if err := os.WriteFile(filepath.Join(dir, altregistry.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Root = tmpDir
	cfg.Paths.Archive = filepath.Join(tmpDir, "alts.arc")
	cfg.Paths.AltRoots = []string{filepath.Join(tmpDir, "alts")}
	cfg.Paths.State = filepath.Join(tmpDir, "selection.cbor")

	writeArchive(t, cfg.Paths.Archive)
	writeAltRoot(t, cfg.Paths.AltRoots[0])
	return cfg
}

func nativeLoadPath() *intercept.LoadPath {
	payloads := map[asset.Hash][]byte{
		asset.HashString(battlefieldModel):    []byte("original model"),
		asset.HashString(battlefieldRedirect): []byte("arena model"),
	}
	return intercept.NewLoadPath(func(request intercept.Request) (intercept.Result, error) {
		data, ok := payloads[request.Path]
		if !ok {
			return intercept.Result{}, errors.New("asset not found")
		}
		return intercept.Result{Data: data, Size: uint32(len(data))}, nil
	})
}

func TestRuntimeEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	lp := nativeLoadPath()

	runtime, err := newRuntime(cfg, discardLogger(), lp)
	if err != nil {
		t.Fatalf("newRuntime failed: %v", err)
	}
	defer runtime.Close()

	// Slot 0: the load path serves originals.
	result, err := lp.Resolve(intercept.Request{
		Path:  asset.HashString(battlefieldModel),
		Stage: "battlefield",
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(result.Data) != "original model" {
		t.Errorf("slot 0 result = %q, want original", result.Data)
	}

	// Activate slot 2: the mapped hash now serves the redirect.
	if committed := runtime.SetAlt("battlefield", 2); committed != 2 {
		t.Fatalf("SetAlt committed %d, want 2", committed)
	}
	result, err = lp.Resolve(intercept.Request{
		Path:  asset.HashString(battlefieldModel),
		Stage: "battlefield",
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(result.Data) != "arena model" || result.Source != intercept.SourceRedirect {
		t.Errorf("slot 2 result = %q via %v, want arena model via redirect", result.Data, result.Source)
	}
}

func TestRuntimeOversizedPayloadFailsOpen(t *testing.T) {
	cfg := testConfig(t)

	// Slot 3 carries a loose payload far larger than the 14-byte
	// original and declares no max_size, so the original entry's
	// size is the cap.
	dir := filepath.Join(cfg.Paths.AltRoots[0], "battlefield", "s03")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"files": [{"path": "` + battlefieldModel + `", "source": "model.numdlb"}],
	}`
	if err := os.WriteFile(filepath.Join(dir, altregistry.ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	oversized := bytes.Repeat([]byte("x"), 1<<20)
	if err := os.WriteFile(filepath.Join(dir, "model.numdlb"), oversized, 0o644); err != nil {
		t.Fatal(err)
	}

	lp := nativeLoadPath()
	runtime, err := newRuntime(cfg, discardLogger(), lp)
	if err != nil {
		t.Fatal(err)
	}
	defer runtime.Close()

	runtime.SetAlt("battlefield", 3)
	result, err := lp.Resolve(intercept.Request{
		Path:  asset.HashString(battlefieldModel),
		Stage: "battlefield",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != intercept.SourceOriginal || string(result.Data) != "original model" {
		t.Errorf("oversized payload result = %d bytes via %v, want original", len(result.Data), result.Source)
	}
}

func TestRuntimeStageAttribution(t *testing.T) {
	cfg := testConfig(t)
	lp := nativeLoadPath()

	runtime, err := newRuntime(cfg, discardLogger(), lp)
	if err != nil {
		t.Fatal(err)
	}
	defer runtime.Close()

	runtime.SetAlt("battlefield", 2)

	// No stage on the request, no stage reported: pass through.
	result, err := lp.Resolve(intercept.Request{Path: asset.HashString(battlefieldModel)})
	if err != nil {
		t.Fatal(err)
	}
	if string(result.Data) != "original model" {
		t.Errorf("unattributed result = %q, want original", result.Data)
	}

	// Host reports a stage transition by folder hash; the same
	// request is now attributed and substituted.
	runtime.StageChange(asset.StageID("battlefield").FolderHash())
	if got := runtime.CurrentStage(); got != "battlefield" {
		t.Fatalf("CurrentStage = %q, want battlefield", got)
	}

	result, err = lp.Resolve(intercept.Request{Path: asset.HashString(battlefieldModel)})
	if err != nil {
		t.Fatal(err)
	}
	if string(result.Data) != "arena model" {
		t.Errorf("attributed result = %q, want arena model", result.Data)
	}

	// An unknown folder clears attribution.
	runtime.StageChange(asset.HashString("stage/nowhere"))
	if got := runtime.CurrentStage(); got != "" {
		t.Errorf("CurrentStage after unknown folder = %q, want empty", got)
	}
}

func TestRuntimePersistenceRoundTrip(t *testing.T) {
	cfg := testConfig(t)

	runtime, err := newRuntime(cfg, discardLogger(), nativeLoadPath())
	if err != nil {
		t.Fatal(err)
	}
	runtime.SetAlt("battlefield", 2)
	runtime.SetOnline(true)
	if err := runtime.Close(); err != nil {
		t.Fatal(err)
	}

	// A second runtime over the same config restores the selection.
	// A fresh load path: each runtime hooks its own.
	restored, err := newRuntime(cfg, discardLogger(), nativeLoadPath())
	if err != nil {
		t.Fatal(err)
	}
	defer restored.Close()

	if got := restored.Selection().Get("battlefield"); got != 2 {
		t.Errorf("restored slot = %d, want 2", got)
	}
	if !restored.Selection().Online() {
		t.Error("restored online = false, want true")
	}
}

func TestRuntimeCorruptSnapshotIgnored(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Paths.State, []byte("not cbor at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	runtime, err := newRuntime(cfg, discardLogger(), nativeLoadPath())
	if err != nil {
		t.Fatalf("corrupt snapshot blocked startup: %v", err)
	}
	defer runtime.Close()

	if got := runtime.Selection().Get("battlefield"); got != 0 {
		t.Errorf("slot after corrupt snapshot = %d, want 0", got)
	}
}

func TestRuntimeMissingArchiveFailsInit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Archive = filepath.Join(t.TempDir(), "missing.arc")

	lp := nativeLoadPath()
	if _, err := newRuntime(cfg, discardLogger(), lp); err == nil {
		t.Fatal("expected init failure for missing archive")
	}

	// The load path was never hooked: originals still flow and a
	// later engine may still install.
	result, err := lp.Resolve(intercept.Request{Path: asset.HashString(battlefieldModel)})
	if err != nil {
		t.Fatal(err)
	}
	if string(result.Data) != "original model" {
		t.Errorf("result = %q, want original after failed init", result.Data)
	}
}

func TestRuntimeRandomizeOnBoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Selection.RandomizeOnBoot = true

	runtime, err := newRuntime(cfg, discardLogger(), nativeLoadPath())
	if err != nil {
		t.Fatal(err)
	}
	defer runtime.Close()

	// Only slot 2 is discovered for battlefield, so randomize lands
	// on it deterministically.
	if got := runtime.Selection().Get("battlefield"); got != 2 {
		t.Errorf("randomized slot = %d, want 2", got)
	}
}
