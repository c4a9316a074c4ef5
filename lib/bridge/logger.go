// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/altarc/altarc/lib/config"
)

// NewLogger creates the standard Altarc logger: a JSON handler
// writing to w at the given level. It also sets the default slog
// logger so that third-party code using slog.Info etc. gets the same
// handler. A nil w means stderr.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// OpenLogger builds the logger described by cfg: level from
// logging.level, output to paths.log when set (append, created if
// missing) and stderr otherwise.
func OpenLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	var w io.Writer
	if cfg.Paths.Log != "" {
		file, err := os.OpenFile(cfg.Paths.Log, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = file
	}

	return NewLogger(w, level), nil
}
