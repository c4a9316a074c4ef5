// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/altarc/altarc/lib/asset"
)

// Archive format constants.
const (
	// formatVersion is the archive format version byte embedded in
	// the magic. Version 1 is the initial format.
	formatVersion = 1

	// entrySize is the size of each entry table record: 8-byte hash
	// + 8-byte absolute data offset + 4-byte stored size + 4-byte
	// decompressed size + 1-byte compression tag + 7 reserved bytes.
	// The reserved bytes keep the record at an 8-byte stride.
	entrySize = 32
)

// formatMagic is the 8-byte archive file signature: "ALTARC" +
// version byte + reserved byte.
var formatMagic = [8]byte{'A', 'L', 'T', 'A', 'R', 'C', formatVersion, 0}

// Entry describes one packed asset: where its payload lives in the
// archive and how to decode it. Entries are owned by the [Index] and
// never mutated after open.
type Entry struct {
	// Path is the content hash of the asset's archive path.
	Path asset.Hash

	// Offset is the payload's absolute byte offset in the archive
	// file.
	Offset uint64

	// StoredSize is the payload's on-disk byte length (after
	// compression).
	StoredSize uint32

	// Size is the decompressed byte length.
	Size uint32

	// Compression is the algorithm the payload is stored with.
	Compression CompressionTag
}

// Writer accumulates assets and writes a complete archive. Used by
// authoring tools and tests; the runtime only ever reads archives.
//
// Typical usage:
//
//	w := archive.NewWriter()
//	w.Add("stage/battlefield/normal/model.numdlb", data, archive.CompressionLZ4)
//	// ... add more assets ...
//	err := w.WriteTo(file)
type Writer struct {
	entries []writerEntry
	stages  map[asset.StageID]struct{}
}

type writerEntry struct {
	hash   asset.Hash
	stored []byte
	size   uint32
	tag    CompressionTag
}

// NewWriter creates an empty archive writer.
func NewWriter() *Writer {
	return &Writer{stages: make(map[asset.StageID]struct{})}
}

// Add compresses data with the requested algorithm and records it
// under the hash of path. If the data is incompressible the entry
// falls back to CompressionNone. Adding the same path twice replaces
// the earlier payload.
func (w *Writer) Add(path string, data []byte, tag CompressionTag) error {
	stored, err := Compress(data, tag)
	if err != nil {
		if err != errIncompressible {
			return fmt.Errorf("compressing %s: %w", path, err)
		}
		stored, tag = data, CompressionNone
	}

	hash := asset.HashString(path)
	entry := writerEntry{
		hash:   hash,
		stored: stored,
		size:   uint32(len(data)),
		tag:    tag,
	}

	replaced := false
	for i := range w.entries {
		if w.entries[i].hash == hash {
			w.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		w.entries = append(w.entries, entry)
	}

	if stage := asset.StageFromPath(path); stage != "" {
		w.stages[stage] = struct{}{}
	}
	return nil
}

// AddStage records a stage in the stage table without adding any
// asset. Stages referenced by assets added with [Writer.Add] are
// recorded automatically.
func (w *Writer) AddStage(stage asset.StageID) {
	w.stages[stage] = struct{}{}
}

// WriteTo writes the complete archive to out. The entry table is
// sorted by hash so the reader can binary-search it.
func (w *Writer) WriteTo(out io.Writer) error {
	if len(w.entries) == 0 {
		return fmt.Errorf("cannot write empty archive")
	}

	entries := make([]writerEntry, len(w.entries))
	copy(entries, w.entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].hash < entries[j].hash
	})

	stages := make([]asset.StageID, 0, len(w.stages))
	for stage := range w.stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	// Fixed header + stage table + entry table sizes determine the
	// data region start, which entry offsets are absolute against.
	headerSize := len(formatMagic) + 4
	stageTableSize := 0
	for _, stage := range stages {
		stageTableSize += 1 + len(stage) + 8
	}
	entryTableSize := 4 + len(entries)*entrySize
	dataStart := uint64(headerSize + stageTableSize + entryTableSize)

	buffer := make([]byte, 0, int(dataStart))
	buffer = append(buffer, formatMagic[:]...)
	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(stages)))
	for _, stage := range stages {
		buffer = append(buffer, byte(len(stage)))
		buffer = append(buffer, stage...)
		buffer = binary.LittleEndian.AppendUint64(buffer, uint64(stage.FolderHash()))
	}

	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(entries)))
	offset := dataStart
	for _, entry := range entries {
		buffer = binary.LittleEndian.AppendUint64(buffer, uint64(entry.hash))
		buffer = binary.LittleEndian.AppendUint64(buffer, offset)
		buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(entry.stored)))
		buffer = binary.LittleEndian.AppendUint32(buffer, entry.size)
		buffer = append(buffer, byte(entry.tag))
		buffer = append(buffer, 0, 0, 0, 0, 0, 0, 0)
		offset += uint64(len(entry.stored))
	}

	if _, err := out.Write(buffer); err != nil {
		return fmt.Errorf("writing archive tables: %w", err)
	}

	for i, entry := range entries {
		if _, err := out.Write(entry.stored); err != nil {
			return fmt.Errorf("writing payload %d: %w", i, err)
		}
	}
	return nil
}
