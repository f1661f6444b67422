// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for duochat.
//
// Configuration comes from ~/.duochat/config.toml with built-in
// defaults, and API keys can be supplied or overridden through the
// OPENAI_API_KEY and GOOGLE_API_KEY environment variables.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/duochat/internal/util"
)

// Timeout bounds in seconds for provider requests.
const (
	DefaultTimeoutSecs = 60
	MinTimeoutSecs     = 5
	MaxTimeoutSecs     = 600
)

// Config is the complete duochat configuration.
type Config struct {
	// DisplayName labels the user's lines in the transcript.
	DisplayName string `toml:"display_name"`

	// Timestamps prefixes transcript lines with "[HH:MM]" when true.
	Timestamps bool `toml:"timestamps"`

	// Theme selects the terminal rendering theme: "dark", "light", or "auto".
	Theme string `toml:"theme"`

	// TimeoutSecs is the per-request provider timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`

	OpenAI OpenAIConfig `toml:"openai"`
	Gemini GeminiConfig `toml:"gemini"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DisplayName: "You",
		Timestamps:  true,
		Theme:       "auto",
		TimeoutSecs: DefaultTimeoutSecs,
	}
}

// ConfigDir returns the duochat configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".duochat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens config file permissions to 0600.
// The file holds API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// Load reads the config file, falls back to defaults when it does not
// exist, applies environment overrides, and validates the result.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit file path. A missing file is
// not an error; the defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides lets environment variables override file values.
// Keys in the environment win so CI and one-off runs need no config
// file at all.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.OpenAI.APIKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("DUOCHAT_OPENAI_MODEL"); model != "" {
		c.OpenAI.Model = model
	}
	if model := os.Getenv("DUOCHAT_GEMINI_MODEL"); model != "" {
		c.Gemini.Model = model
	}
}

// SetDefaults fills in zero values left by a sparse config file.
func (c *Config) SetDefaults() {
	if c.DisplayName == "" {
		c.DisplayName = "You"
	}
	if c.Theme == "" {
		c.Theme = "auto"
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	switch c.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("theme must be dark, light, or auto (got %q)", c.Theme)
	}
	if c.TimeoutSecs < MinTimeoutSecs || c.TimeoutSecs > MaxTimeoutSecs {
		return fmt.Errorf("timeout_secs must be between %d and %d (got %d)",
			MinTimeoutSecs, MaxTimeoutSecs, c.TimeoutSecs)
	}
	return nil
}

// Save writes the configuration to the default path with owner-only
// permissions.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
