// Copyright 2026 The Altarc Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the Altarc runtime and tools.
type Config struct {
	// Paths configures file and directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Logging configures the slog output.
	Logging LoggingConfig `yaml:"logging"`

	// Selection configures initial selection behavior.
	Selection SelectionConfig `yaml:"selection"`

	// Overlay configures the in-game picker overlay.
	Overlay OverlayConfig `yaml:"overlay"`
}

// PathsConfig configures file and directory locations.
type PathsConfig struct {
	// Root is the base directory for Altarc data.
	Root string `yaml:"root"`

	// Archive is the packed alternate-asset archive consulted for
	// redirect lookups by the packing and inspection tools.
	Archive string `yaml:"archive"`

	// AltRoots are the directories scanned for sNN slot folders, in
	// ascending priority order: a mapping in a later root replaces
	// the same mapping from an earlier one.
	AltRoots []string `yaml:"alt_roots"`

	// State is the persisted selection snapshot file.
	State string `yaml:"state"`

	// Log is the log file the runtime writes to. Empty means stderr.
	Log string `yaml:"log"`
}

// LoggingConfig configures the slog output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: info.
	Level string `yaml:"level"`
}

// SelectionConfig configures initial selection behavior.
type SelectionConfig struct {
	// Online is the session-mode flag assumed at startup, before the
	// host reports the real mode. Default: false.
	Online bool `yaml:"online"`

	// RandomizeOnBoot picks a random discovered alternate for every
	// stage at startup instead of restoring the snapshot.
	RandomizeOnBoot bool `yaml:"randomize_on_boot"`
}

// OverlayConfig configures the in-game picker overlay.
type OverlayConfig struct {
	// Enabled controls whether the picker overlay is available.
	// Default: true.
	Enabled bool `yaml:"enabled"`
}

// Default returns the default configuration. These defaults are the
// base before loading the config file; the file is still required for
// [Load].
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "altarc")

	return &Config{
		Paths: PathsConfig{
			Root:     defaultRoot,
			Archive:  filepath.Join(defaultRoot, "alts.arc"),
			AltRoots: []string{filepath.Join(defaultRoot, "alts")},
			State:    filepath.Join(defaultRoot, "state", "selection.cbor"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Overlay: OverlayConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from the ALTARC_CONFIG environment
// variable.
//
// There are no fallbacks or discovery: if ALTARC_CONFIG is not set,
// this fails. Configuration stays deterministic and auditable with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("ALTARC_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ALTARC_CONFIG environment variable not set; " +
			"set it to the path of your altarc.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values; the only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ALTARC_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ALTARC_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Archive = expandVars(c.Paths.Archive, vars)
	for i, root := range c.Paths.AltRoots {
		c.Paths.AltRoots[i] = expandVars(root, vars)
	}
	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Log = expandVars(c.Paths.Log, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}
	if len(c.Paths.AltRoots) == 0 {
		errs = append(errs, fmt.Errorf("paths.alt_roots must name at least one directory"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel parses Logging.Level into a slog.Level. An empty level
// means info.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Logging.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", c.Logging.Level)
}

// EnsurePaths creates the configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		filepath.Dir(c.Paths.State),
	}
	paths = append(paths, c.Paths.AltRoots...)

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
