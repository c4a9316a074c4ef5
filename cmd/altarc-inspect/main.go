// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/altarc/altarc/lib/altregistry"
	"github.com/altarc/altarc/lib/archive"
	"github.com/altarc/altarc/lib/codec"
	"github.com/altarc/altarc/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var archivePath string
	var snapshotPath string
	var altRoots []string
	var showEntries bool

	flagSet := pflag.NewFlagSet("altarc-inspect", pflag.ContinueOnError)
	flagSet.StringVar(&archivePath, "archive", "", "packed archive to inspect")
	flagSet.StringVar(&snapshotPath, "snapshot", "", "selection snapshot to dump")
	flagSet.StringArrayVar(&altRoots, "alts", nil, "alt root to scan (repeatable, ascending priority)")
	flagSet.BoolVar(&showEntries, "entries", false, "list every archive entry")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		if len(os.Args) > 2 && os.Args[2] == "--full" {
			version.PrintFull("altarc-inspect")
		} else {
			version.Print("altarc-inspect")
		}
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	switch {
	case snapshotPath != "":
		return inspectSnapshot(snapshotPath)
	case archivePath != "":
		return inspectArchive(archivePath, altRoots, showEntries)
	}
	return fmt.Errorf("one of --archive or --snapshot is required")
}

func inspectArchive(path string, altRoots []string, showEntries bool) error {
	index, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer index.Close()

	stages := index.Stages()
	fmt.Printf("%s: %d entries, %d stages\n", path, index.EntryCount(), len(stages))
	for _, stage := range stages {
		fmt.Printf("  stage %s (folder %v)\n", stage, stage.FolderHash())
	}

	if showEntries {
		for _, entry := range index.Entries() {
			fmt.Printf("  %v  %s  %d -> %d bytes\n",
				entry.Path, entry.Compression, entry.StoredSize, entry.Size)
		}
	}

	if len(altRoots) == 0 {
		return nil
	}

	// Registry warnings (malformed manifests, unknown stages) go to
	// stderr so the listing on stdout stays clean.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	registry, err := altregistry.Build(index, logger, altRoots...)
	if err != nil {
		return err
	}

	for _, stage := range registry.Stages() {
		fmt.Printf("alternates for %s:\n", stage)
		for _, slot := range registry.AlternatesFor(stage) {
			flags := ""
			if slot.WifiSafe {
				flags += " wifi-safe"
			}
			if slot.Ignore {
				flags += " ignore"
			}
			fmt.Printf("  s%02d  %-20s %d overrides%s\n",
				slot.Index, slot.Name, slot.Overrides, flags)
		}
	}
	return nil
}

func inspectSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	notation, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	fmt.Println(notation)
	return nil
}
