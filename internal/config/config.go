// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docchat.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location:
//   - ~/.docchat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/codegeass321/docchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docchat configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend configuration (RAG service)
	Backend BackendConfig `toml:"backend"`

	// Auth configuration (hosted identity provider)
	Auth AuthConfig `toml:"auth"`

	// History configuration (hosted or local chat store)
	History HistoryConfig `toml:"history"`

	// Audio capture and playback configuration
	Audio AudioConfig `toml:"audio"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// BackendConfig points the client at the RAG backend.
// The backend origin is configuration-injected; there is no hardcoded host.
type BackendConfig struct {
	// BaseURL is the backend origin serving /ask, /upload and /status.
	BaseURL string `toml:"base_url"`
	// ClearURL is the endpoint that resets server-side session context
	// around sign-in/out. Empty disables the call.
	ClearURL string `toml:"clear_url"`
	// TimeoutSecs bounds each ask/upload request. 0 means the default.
	TimeoutSecs int `toml:"timeout_secs"`
}

// AuthConfig configures the hosted identity provider client.
type AuthConfig struct {
	// URL is the identity provider endpoint (GoTrue-style REST).
	URL string `toml:"url"`
	// APIKey is the provider's publishable API key.
	APIKey string `toml:"api_key"`
}

// HistoryConfig selects and configures the chat history store.
type HistoryConfig struct {
	// Store selects the backend: "remote" (hosted table) or "sqlite" (local).
	Store string `toml:"store"`
	// URL is the hosted table endpoint (PostgREST-style REST).
	URL string `toml:"url"`
	// APIKey is the hosted store's publishable API key.
	APIKey string `toml:"api_key"`
	// Path is the sqlite database path (empty = ~/.docchat/history.db).
	Path string `toml:"path"`
	// FetchLimit is how many recent records to fetch for the sidebar.
	FetchLimit int `toml:"fetch_limit"`
}

// AudioConfig configures microphone capture and sound-effect playback.
type AudioConfig struct {
	// CaptureCommand records WAV to stdout until killed. Empty selects a
	// platform default (ffmpeg, arecord, sox in probe order).
	CaptureCommand string `toml:"capture_command"`
	// PlayerCommand plays a short audio file (afplay, paplay, aplay...).
	// Empty selects a platform default.
	PlayerCommand string `toml:"player_command"`
	// SoundEffects toggles UI sound cues.
	SoundEffects bool `toml:"sound_effects"`
	// SampleRate is the capture sample rate in Hz.
	SampleRate int `toml:"sample_rate"`
}

// UIConfig contains UI behavior settings.
type UIConfig struct {
	// Greeting is the assistant turn seeded into a fresh transcript.
	Greeting string `toml:"greeting"`
	// ShowHero toggles the animated welcome screen.
	ShowHero bool `toml:"show_hero"`
	// Theme selects "dark", "light" or "auto".
	Theme string `toml:"theme"`
}

// LogConfig configures the rotating debug log.
type LogConfig struct {
	// Path is the log file (empty = ~/.docchat/logs/docchat.log).
	Path string `toml:"path"`
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
	// MaxSizeMB caps a single log file before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
	// MaxBackups caps the number of rotated files kept.
	MaxBackups int `toml:"max_backups"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultBackendTimeout bounds one ask/upload request.
const DefaultBackendTimeout = 120 * time.Second

// DefaultFetchLimit is the sidebar history fetch limit.
const DefaultFetchLimit = 10

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: int(DefaultBackendTimeout / time.Second),
		},
		History: HistoryConfig{
			Store:      "sqlite",
			FetchLimit: DefaultFetchLimit,
		},
		Audio: AudioConfig{
			SoundEffects: true,
			SampleRate:   16000,
		},
		UI: UIConfig{
			Greeting: "Hi! Upload a document or ask me anything (text or audio).",
			ShowHero: true,
			Theme:    "auto",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the docchat configuration directory (~/.docchat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".docchat"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryDBPath returns the configured or default sqlite history path.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath returns the configured or default log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "docchat.log"), nil
}

// BackendTimeout returns the per-request backend timeout.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSecs <= 0 {
		return DefaultBackendTimeout
	}
	return time.Duration(c.Backend.TimeoutSecs) * time.Second
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration: defaults, then config.toml if present, then
// environment overrides, then validation.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, cfg.Validate()
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path. A missing
// file is not an error; defaults apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults backfills zero values a config file may have omitted.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Backend.TimeoutSecs <= 0 {
		c.Backend.TimeoutSecs = def.Backend.TimeoutSecs
	}
	if c.History.Store == "" {
		c.History.Store = def.History.Store
	}
	if c.History.FetchLimit <= 0 {
		c.History.FetchLimit = def.History.FetchLimit
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.UI.Greeting == "" {
		c.UI.Greeting = def.UI.Greeting
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = def.Log.MaxBackups
	}
}

// ApplyEnvOverrides applies DOCCHAT_* environment variables over the loaded
// values. Environment wins over file which wins over defaults.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DOCCHAT_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("DOCCHAT_CLEAR_URL"); v != "" {
		c.Backend.ClearURL = v
	}
	if v := os.Getenv("DOCCHAT_AUTH_URL"); v != "" {
		c.Auth.URL = v
	}
	if v := os.Getenv("DOCCHAT_AUTH_KEY"); v != "" {
		c.Auth.APIKey = v
	}
	if v := os.Getenv("DOCCHAT_HISTORY_STORE"); v != "" {
		c.History.Store = strings.ToLower(v)
	}
	if v := os.Getenv("DOCCHAT_HISTORY_URL"); v != "" {
		c.History.URL = v
	}
	if v := os.Getenv("DOCCHAT_HISTORY_KEY"); v != "" {
		c.History.APIKey = v
	}
	if v := os.Getenv("DOCCHAT_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Backend.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("DOCCHAT_SOUND"); v != "" {
		c.Audio.SoundEffects = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("DOCCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
			return ValidationError{Field: "backend.base_url", Message: "not a valid URL"}
		}
	}
	if c.Backend.ClearURL != "" {
		if _, err := url.ParseRequestURI(c.Backend.ClearURL); err != nil {
			return ValidationError{Field: "backend.clear_url", Message: "not a valid URL"}
		}
	}

	switch c.History.Store {
	case "remote":
		if c.History.URL == "" {
			return ValidationError{Field: "history.url", Message: "required when history.store is \"remote\""}
		}
	case "sqlite", "":
	default:
		return ValidationError{Field: "history.store", Message: `must be "remote" or "sqlite"`}
	}

	switch c.UI.Theme {
	case "dark", "light", "auto", "":
	default:
		return ValidationError{Field: "ui.theme", Message: `must be "dark", "light" or "auto"`}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return ValidationError{Field: "log.level", Message: "unknown level"}
	}

	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to config.toml atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path atomically.
func SaveToPath(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// Config may carry API keys; keep it out of other users' reach.
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigMu   sync.RWMutex
	globalConfigOnce sync.Once
)

// Global returns the global configuration instance, loading it on first
// access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting resets global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
