// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/altarc/altarc/lib/asset"
)

// writeTestArchive writes an archive to a temp file and opens it.
func writeTestArchive(t *testing.T, w *Writer) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.arc")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive file: %v", err)
	}
	if err := w.WriteTo(file); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("closing archive file: %v", err)
	}

	index, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func TestRoundTripAllCompressionTags(t *testing.T) {
	// Repetitive payloads so lz4 and zstd actually compress.
	payloads := map[string]struct {
		data []byte
		tag  CompressionTag
	}{
		"stage/battlefield/normal/model.numdlb":   {bytes.Repeat([]byte("vertex"), 500), CompressionLZ4},
		"stage/battlefield/normal/param.prc":      {bytes.Repeat([]byte("layout parameter "), 200), CompressionZstd},
		"stage/battlefield/normal/texture.nutexb": {[]byte{0x01, 0xab, 0x37, 0xee, 0x42}, CompressionNone},
	}

	w := NewWriter()
	for path, p := range payloads {
		if err := w.Add(path, p.data, p.tag); err != nil {
			t.Fatalf("Add(%s) failed: %v", path, err)
		}
	}
	index := writeTestArchive(t, w)

	for path, p := range payloads {
		entry, ok := index.Lookup(asset.HashString(path))
		if !ok {
			t.Fatalf("Lookup(%s) missed", path)
		}
		if entry.Compression != p.tag {
			t.Errorf("%s: compression = %v, want %v", path, entry.Compression, p.tag)
		}
		if entry.Size != uint32(len(p.data)) {
			t.Errorf("%s: Size = %d, want %d", path, entry.Size, len(p.data))
		}

		data, err := index.Read(entry)
		if err != nil {
			t.Fatalf("Read(%s) failed: %v", path, err)
		}
		if !bytes.Equal(data, p.data) {
			t.Errorf("%s: payload mismatch after round trip", path)
		}
	}
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	w := NewWriter()
	// Too short and too random for LZ4 to win.
	if err := w.Add("stage/battlefield/normal/tiny.bin", []byte{9, 1, 7, 3}, CompressionLZ4); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	index := writeTestArchive(t, w)

	entry, ok := index.Lookup(asset.HashString("stage/battlefield/normal/tiny.bin"))
	if !ok {
		t.Fatal("Lookup missed")
	}
	if entry.Compression != CompressionNone {
		t.Errorf("compression = %v, want none fallback", entry.Compression)
	}
}

func TestLookupMiss(t *testing.T) {
	w := NewWriter()
	if err := w.Add("stage/battlefield/normal/model.numdlb", []byte("data"), CompressionNone); err != nil {
		t.Fatal(err)
	}
	index := writeTestArchive(t, w)

	if _, ok := index.Lookup(asset.HashString("stage/battlefield/normal/missing.bin")); ok {
		t.Error("Lookup of unknown hash reported a hit")
	}
	if _, ok := index.Lookup(0); ok {
		t.Error("Lookup of zero hash reported a hit")
	}
}

func TestStageTable(t *testing.T) {
	w := NewWriter()
	if err := w.Add("stage/battlefield/normal/model.numdlb", []byte("data"), CompressionNone); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("stage/end/normal/model.numdlb", []byte("data2"), CompressionNone); err != nil {
		t.Fatal(err)
	}
	w.AddStage("village2")
	index := writeTestArchive(t, w)

	for _, stage := range []asset.StageID{"battlefield", "end", "village2"} {
		if !index.HasStage(stage) {
			t.Errorf("HasStage(%q) = false", stage)
		}
	}
	if index.HasStage("mario_castle") {
		t.Error("HasStage reported an absent stage")
	}

	stage, ok := index.StageForFolder(asset.HashString("stage/battlefield"))
	if !ok || stage != "battlefield" {
		t.Errorf("StageForFolder = %q, %v", stage, ok)
	}

	got := index.Stages()
	want := []asset.StageID{"battlefield", "end", "village2"}
	if len(got) != len(want) {
		t.Fatalf("Stages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Stages() = %v, want %v", got, want)
		}
	}
}

func TestDuplicateAddReplaces(t *testing.T) {
	w := NewWriter()
	if err := w.Add("stage/battlefield/normal/model.numdlb", []byte("old"), CompressionNone); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("stage/battlefield/normal/model.numdlb", []byte("newer"), CompressionNone); err != nil {
		t.Fatal(err)
	}
	index := writeTestArchive(t, w)

	if index.EntryCount() != 1 {
		t.Fatalf("EntryCount = %d, want 1", index.EntryCount())
	}
	entry, _ := index.Lookup(asset.HashString("stage/battlefield/normal/model.numdlb"))
	data, err := index.Read(entry)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "newer" {
		t.Errorf("payload = %q, want replacement", data)
	}
}

func TestOpenRejectsMalformed(t *testing.T) {
	writeFile := func(t *testing.T, data []byte) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "data.arc")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("bad magic", func(t *testing.T) {
		path := writeFile(t, []byte("NOTANARCHIVE AT ALL"))
		if _, err := Open(path); err == nil || !strings.Contains(err.Error(), "bad magic") {
			t.Errorf("Open = %v, want bad magic error", err)
		}
	})

	t.Run("truncated tables", func(t *testing.T) {
		data := append([]byte{}, formatMagic[:]...)
		data = append(data, 0xFF, 0xFF, 0, 0) // stage count with no table
		path := writeFile(t, data)
		if _, err := Open(path); err == nil {
			t.Error("Open accepted truncated archive")
		}
	})

	t.Run("payload past end of file", func(t *testing.T) {
		var buffer bytes.Buffer
		w := NewWriter()
		if err := w.Add("stage/battlefield/a.bin", []byte("payload-bytes"), CompressionNone); err != nil {
			t.Fatal(err)
		}
		if err := w.WriteTo(&buffer); err != nil {
			t.Fatal(err)
		}
		// Chop the data region off.
		path := writeFile(t, buffer.Bytes()[:buffer.Len()-8])
		if _, err := Open(path); err == nil || !strings.Contains(err.Error(), "past end of file") {
			t.Errorf("Open = %v, want payload bounds error", err)
		}
	})

	t.Run("empty writer", func(t *testing.T) {
		if err := NewWriter().WriteTo(&bytes.Buffer{}); err == nil {
			t.Error("WriteTo accepted empty archive")
		}
	})
}

func TestCompressionRejectsCorrupt(t *testing.T) {
	if _, err := Decompress([]byte{0xFF, 0x00, 0x13}, CompressionLZ4, 4096); err == nil {
		t.Error("lz4 Decompress accepted garbage")
	}
	if _, err := Decompress([]byte{0xFF, 0x00, 0x13}, CompressionZstd, 4096); err == nil {
		t.Error("zstd Decompress accepted garbage")
	}
	if _, err := Decompress([]byte("abc"), CompressionNone, 5); err == nil {
		t.Error("none Decompress accepted size mismatch")
	}
	if _, err := Decompress(nil, CompressionTag(9), 0); err == nil {
		t.Error("Decompress accepted unknown tag")
	}
}
