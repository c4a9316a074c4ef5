// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/altarc/altarc/lib/bridge"
	"github.com/altarc/altarc/lib/config"
	"github.com/altarc/altarc/lib/intercept"
	"github.com/altarc/altarc/lib/overlay"
	"github.com/altarc/altarc/lib/script"
	"github.com/altarc/altarc/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	var scriptPath string

	flagSet := pflag.NewFlagSet("altarc-picker", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to altarc.yaml (default: $ALTARC_CONFIG)")
	flagSet.StringVar(&scriptPath, "script", "", "run a Lua selection script instead of the TUI")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		if len(os.Args) > 2 && os.Args[2] == "--full" {
			version.PrintFull("altarc-picker")
		} else {
			version.Print("altarc-picker")
		}
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if scriptPath == "" && !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("altarc-picker needs an interactive terminal")
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger, err := bridge.OpenLogger(cfg)
	if err != nil {
		return err
	}

	// The picker never serves loads; the runtime only needs the load
	// path so the engine has somewhere to install.
	lp := intercept.NewLoadPath(func(intercept.Request) (intercept.Result, error) {
		return intercept.Result{}, errors.New("no host loader")
	})

	runtime, err := bridge.Init(cfg, logger, lp)
	if err != nil {
		return err
	}
	defer runtime.Close()

	if scriptPath != "" {
		return script.New(runtime).RunFile(scriptPath)
	}

	program := tea.NewProgram(overlay.NewModel(runtime), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running picker: %w", err)
	}
	return nil
}
