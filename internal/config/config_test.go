// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.BaseURL == "" {
		t.Error("default backend URL should not be empty")
	}
	if cfg.History.Store != "sqlite" {
		t.Errorf("default history store = %q, want sqlite", cfg.History.Store)
	}
	if cfg.History.FetchLimit != DefaultFetchLimit {
		t.Errorf("default fetch limit = %d, want %d", cfg.History.FetchLimit, DefaultFetchLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backend.BaseURL != Default().Backend.BaseURL {
		t.Errorf("missing file should fall back to defaults, got %q", cfg.Backend.BaseURL)
	}
}

func TestLoadFromPath_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
base_url = "https://rag.example.com"
timeout_secs = 30

[history]
store = "remote"
url = "https://db.example.com/rest/v1"
api_key = "anon-key"

[ui]
theme = "dark"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://rag.example.com" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.BackendTimeout() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.BackendTimeout())
	}
	if cfg.History.Store != "remote" {
		t.Errorf("store = %q, want remote", cfg.History.Store)
	}
	// Omitted fields keep their defaults.
	if cfg.History.FetchLimit != DefaultFetchLimit {
		t.Errorf("fetch_limit = %d, want default %d", cfg.History.FetchLimit, DefaultFetchLimit)
	}
	if cfg.UI.Greeting == "" {
		t.Error("omitted greeting should keep default")
	}
}

func TestApplyEnvOverrides_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[backend]\nbase_url = \"https://from-file.example.com\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DOCCHAT_BACKEND_URL", "https://from-env.example.com")
	t.Setenv("DOCCHAT_LOG_LEVEL", "DEBUG")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://from-env.example.com" {
		t.Errorf("env should win over file, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad backend url", func(c *Config) { c.Backend.BaseURL = "::not-a-url" }, true},
		{"remote store without url", func(c *Config) { c.History.Store = "remote"; c.History.URL = "" }, true},
		{"unknown store", func(c *Config) { c.History.Store = "dynamo" }, true},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://rag.example.com"
	cfg.Auth.URL = "https://auth.example.com"
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	// Saved with owner-only permissions: it may carry API keys.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file perm = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Backend.BaseURL != cfg.Backend.BaseURL {
		t.Errorf("round-trip base_url = %q, want %q", loaded.Backend.BaseURL, cfg.Backend.BaseURL)
	}
	if loaded.Auth.URL != cfg.Auth.URL {
		t.Errorf("round-trip auth url = %q, want %q", loaded.Auth.URL, cfg.Auth.URL)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[backend]\nbase_url = \"https://one.example.com\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcherForPath(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcherForPath failed: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("[backend]\nbase_url = \"https://two.example.com\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Backend.BaseURL != "https://two.example.com" {
			t.Errorf("reloaded base_url = %q", cfg.Backend.BaseURL)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}
}
