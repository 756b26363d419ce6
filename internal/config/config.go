// Package config loads server settings from an optional risorls.toml and
// applies client-pushed overrides.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDebounceMS     = 200
	DefaultMaxDiagnostics = 100
)

// Config is the risorls.toml schema.
type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	// DebounceMS is the publish debounce window in milliseconds.
	DebounceMS int `toml:"debounce_ms"`
	// MaxDiagnostics caps diagnostics per publish.
	MaxDiagnostics int `toml:"max_diagnostics"`
	// Semantic enables the compile stage (undefined-name checks).
	Semantic *bool `toml:"semantic"`
}

type LogConfig struct {
	// Verbosity maps to commonlog levels (0 = notice, 1 = info, 2 = debug).
	Verbosity int `toml:"verbosity"`
	// File receives log output; empty means stderr.
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			DebounceMS:     DefaultDebounceMS,
			MaxDiagnostics: DefaultMaxDiagnostics,
		},
	}
}

// Load reads a config file. A missing file yields the defaults; a present
// but malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Server.DebounceMS <= 0 {
		c.Server.DebounceMS = DefaultDebounceMS
	}
	if c.Server.MaxDiagnostics <= 0 {
		c.Server.MaxDiagnostics = DefaultMaxDiagnostics
	}
}

// Debounce returns the publish debounce window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Server.DebounceMS) * time.Millisecond
}

// SemanticEnabled reports whether the compile stage runs (default on).
func (c Config) SemanticEnabled() bool {
	if c.Server.Semantic == nil {
		return true
	}
	return *c.Server.Semantic
}
