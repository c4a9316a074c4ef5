// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/altarc/altarc/lib/archive"
	"github.com/altarc/altarc/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var inputDir string
	var outputPath string
	var compressionName string

	flagSet := pflag.NewFlagSet("altarc-pack", pflag.ContinueOnError)
	flagSet.StringVar(&inputDir, "input", "", "directory to pack")
	flagSet.StringVar(&outputPath, "output", "", "archive file to write")
	flagSet.StringVar(&compressionName, "compression", "lz4", "compression for entries: none, lz4, zstd")

	// Handle --version before flag parsing to match other Altarc binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		if len(os.Args) > 2 && os.Args[2] == "--full" {
			version.PrintFull("altarc-pack")
		} else {
			version.Print("altarc-pack")
		}
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if inputDir == "" || outputPath == "" {
		return fmt.Errorf("--input and --output are required")
	}

	compression, err := archive.ParseCompressionTag(compressionName)
	if err != nil {
		return err
	}

	writer := archive.NewWriter()
	count := 0

	err = filepath.WalkDir(inputDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := writer.Add(filepath.ToSlash(relative), data, compression); err != nil {
			return fmt.Errorf("adding %s: %w", relative, err)
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no files found under %s", inputDir)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := writer.WriteTo(file); err != nil {
		file.Close()
		os.Remove(outputPath)
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	fmt.Printf("packed %d entries into %s\n", count, outputPath)
	return nil
}
