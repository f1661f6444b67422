// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "You", cfg.DisplayName)
	require.True(t, cfg.Timestamps)
	require.Equal(t, "auto", cfg.Theme)
	require.Equal(t, DefaultTimeoutSecs, cfg.TimeoutSecs)
	require.NoError(t, cfg.Validate(), "default config should validate")
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	require.Equal(t, "You", cfg.DisplayName)
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
display_name = "Ada"
timestamps = false
theme = "dark"
timeout_secs = 30

[openai]
api_key = "sk-file-key"
model = "gpt-4o-mini"

[gemini]
api_key = "g-file-key"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "Ada", cfg.DisplayName)
	require.False(t, cfg.Timestamps)
	require.Equal(t, 30, cfg.TimeoutSecs)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	require.Equal(t, "g-file-key", cfg.Gemini.APIKey)
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[openai]
api_key = "sk-file-key"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("OPENAI_API_KEY", "sk-env-key")
	t.Setenv("GOOGLE_API_KEY", "g-env-key")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "sk-env-key", cfg.OpenAI.APIKey, "environment should win over file")
	require.Equal(t, "g-env-key", cfg.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad theme", func(c *Config) { c.Theme = "neon" }, true},
		{"timeout too small", func(c *Config) { c.TimeoutSecs = 1 }, true},
		{"timeout too large", func(c *Config) { c.TimeoutSecs = 10000 }, true},
		{"timeout at bounds", func(c *Config) { c.TimeoutSecs = MinTimeoutSecs }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSaveToPathRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DisplayName = "Grace"
	cfg.OpenAI.APIKey = "sk-secret"
	require.NoError(t, SaveToPath(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm(), "config file should not be world readable")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "Grace", loaded.DisplayName)
	require.Equal(t, "sk-secret", loaded.OpenAI.APIKey)
}
