// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/altarc/altarc/lib/asset"
)

// Index is the read-only view over a packed archive: the stage table,
// the hash-sorted entry table, and a handle for payload reads. All
// fields are immutable after [Open]; concurrent use needs no locking.
type Index struct {
	file    *os.File
	size    uint64
	entries []Entry

	stages      map[asset.StageID]asset.Hash
	stageFolder map[asset.Hash]asset.StageID
}

// Open maps the archive at path into an Index. Any structural problem
// — bad magic, truncated tables, payloads extending past the end of
// the file — is an error; per the startup contract the caller must
// treat it as fatal and leave the load path uninstalled.
func Open(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	index, err := parse(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("archive %s: %w", path, err)
	}
	return index, nil
}

func parse(file *os.File) (*Index, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	fileSize := uint64(info.Size())

	reader := newTableReader(file)

	var magic [8]byte
	reader.bytes(magic[:])
	if reader.err != nil {
		return nil, fmt.Errorf("reading magic: %w", reader.err)
	}
	if magic != formatMagic {
		return nil, fmt.Errorf("bad magic %q (version %d expected)", magic[:6], formatVersion)
	}

	stageCount := reader.uint32()
	if reader.err != nil {
		return nil, fmt.Errorf("reading stage count: %w", reader.err)
	}
	stages := make(map[asset.StageID]asset.Hash, stageCount)
	stageFolder := make(map[asset.Hash]asset.StageID, stageCount)
	for i := uint32(0); i < stageCount; i++ {
		nameLength := reader.byte()
		name := make([]byte, nameLength)
		reader.bytes(name)
		folder := asset.Hash(reader.uint64())
		if reader.err != nil {
			return nil, fmt.Errorf("reading stage %d: %w", i, reader.err)
		}

		stage := asset.StageID(name)
		if !stage.Valid() {
			return nil, fmt.Errorf("stage %d: invalid name %q", i, name)
		}
		if stage.FolderHash() != folder {
			return nil, fmt.Errorf("stage %q: folder hash %v does not match name", stage, folder)
		}
		stages[stage] = folder
		stageFolder[folder] = stage
	}

	entryCount := reader.uint32()
	if reader.err != nil {
		return nil, fmt.Errorf("reading entry count: %w", reader.err)
	}
	entries := make([]Entry, entryCount)
	for i := range entries {
		var record [entrySize]byte
		reader.bytes(record[:])
		if reader.err != nil {
			return nil, fmt.Errorf("reading entry %d: %w", i, reader.err)
		}

		entry := Entry{
			Path:        asset.Hash(binary.LittleEndian.Uint64(record[0:8])),
			Offset:      binary.LittleEndian.Uint64(record[8:16]),
			StoredSize:  binary.LittleEndian.Uint32(record[16:20]),
			Size:        binary.LittleEndian.Uint32(record[20:24]),
			Compression: CompressionTag(record[24]),
		}
		if entry.Compression > CompressionZstd {
			return nil, fmt.Errorf("entry %d (%v): unknown compression tag %d", i, entry.Path, record[24])
		}
		if entry.Offset+uint64(entry.StoredSize) > fileSize {
			return nil, fmt.Errorf("entry %d (%v): payload [%d, %d) extends past end of file (%d)",
				i, entry.Path, entry.Offset, entry.Offset+uint64(entry.StoredSize), fileSize)
		}
		if i > 0 && entries[i-1].Path >= entry.Path {
			return nil, fmt.Errorf("entry table not sorted at index %d", i)
		}
		entries[i] = entry
	}

	return &Index{
		file:        file,
		size:        fileSize,
		entries:     entries,
		stages:      stages,
		stageFolder: stageFolder,
	}, nil
}

// Close releases the underlying archive file. Only authoring tools
// call this; in the host process the index lives for the process
// lifetime.
func (x *Index) Close() error {
	return x.file.Close()
}

// Lookup returns the entry for a content hash. A miss is a normal
// outcome, not an error: unknown hashes belong to content this mod
// does not manage.
func (x *Index) Lookup(hash asset.Hash) (Entry, bool) {
	i := sort.Search(len(x.entries), func(i int) bool {
		return x.entries[i].Path >= hash
	})
	if i < len(x.entries) && x.entries[i].Path == hash {
		return x.entries[i], true
	}
	return Entry{}, false
}

// Read fetches and decompresses an entry's payload. The entry must
// have come from this index's Lookup.
func (x *Index) Read(entry Entry) ([]byte, error) {
	stored := make([]byte, entry.StoredSize)
	if _, err := x.file.ReadAt(stored, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("reading payload for %v: %w", entry.Path, err)
	}
	data, err := Decompress(stored, entry.Compression, int(entry.Size))
	if err != nil {
		return nil, fmt.Errorf("payload for %v: %w", entry.Path, err)
	}
	return data, nil
}

// EntryCount returns the number of entries in the archive.
func (x *Index) EntryCount() int {
	return len(x.entries)
}

// Entries returns the entry table. The returned slice is the index's
// own storage: read-only by contract.
func (x *Index) Entries() []Entry {
	return x.entries
}

// HasStage reports whether the archive knows the stage.
func (x *Index) HasStage(stage asset.StageID) bool {
	_, ok := x.stages[stage]
	return ok
}

// Stages returns the stage names in the archive, sorted.
func (x *Index) Stages() []asset.StageID {
	stages := make([]asset.StageID, 0, len(x.stages))
	for stage := range x.stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })
	return stages
}

// StageForFolder maps a stage folder hash ("stage/<name>") back to
// its stage identifier. Used to attribute load requests to stages.
func (x *Index) StageForFolder(folder asset.Hash) (asset.StageID, bool) {
	stage, ok := x.stageFolder[folder]
	return stage, ok
}

// tableReader reads the fixed-layout archive tables sequentially,
// capturing the first error instead of threading error returns
// through every field read.
type tableReader struct {
	r   io.Reader
	err error
}

func newTableReader(r io.Reader) *tableReader {
	return &tableReader{r: r}
}

func (t *tableReader) bytes(destination []byte) {
	if t.err != nil {
		return
	}
	_, t.err = io.ReadFull(t.r, destination)
}

func (t *tableReader) byte() byte {
	var b [1]byte
	t.bytes(b[:])
	return b[0]
}

func (t *tableReader) uint32() uint32 {
	var b [4]byte
	t.bytes(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func (t *tableReader) uint64() uint64 {
	var b [8]byte
	t.bytes(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
