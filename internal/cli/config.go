// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for the docchat CLI.
//
// Command: config [show|set KEY VALUE|path]
//
// Examples:
//   docchat config                    Show effective configuration
//   docchat config set backend.base_url http://10.0.0.5:8000
//   docchat config set history.store remote
//   docchat config path               Print the config file location
//
// Keys are section.field, matching the TOML layout. API keys are masked
// in show output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "get":
		return configGet(args)
	case "set":
		return configSet(args)
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand %q (show, get, set, path)", args.Subcommand)
	}
}

// configGet prints one key's effective value. API keys are masked.
func configGet(args Args) error {
	if args.ConfigKey == "" {
		return fmt.Errorf("usage: docchat config get KEY")
	}
	value, err := lookupConfigKey(config.Global(), args.ConfigKey)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

// lookupConfigKey reads a section.field key from the configuration.
func lookupConfigKey(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "backend.base_url":
		return cfg.Backend.BaseURL, nil
	case "backend.clear_url":
		return cfg.Backend.ClearURL, nil
	case "backend.timeout_secs":
		return strconv.Itoa(cfg.Backend.TimeoutSecs), nil
	case "auth.url":
		return cfg.Auth.URL, nil
	case "auth.api_key":
		return maskKey(cfg.Auth.APIKey), nil
	case "history.store":
		return cfg.History.Store, nil
	case "history.url":
		return cfg.History.URL, nil
	case "history.api_key":
		return maskKey(cfg.History.APIKey), nil
	case "history.fetch_limit":
		return strconv.Itoa(cfg.History.FetchLimit), nil
	case "audio.capture_command":
		return cfg.Audio.CaptureCommand, nil
	case "audio.player_command":
		return cfg.Audio.PlayerCommand, nil
	case "audio.sound_effects":
		return strconv.FormatBool(cfg.Audio.SoundEffects), nil
	case "audio.sample_rate":
		return strconv.Itoa(cfg.Audio.SampleRate), nil
	case "ui.theme":
		return cfg.UI.Theme, nil
	case "ui.show_hero":
		return strconv.FormatBool(cfg.UI.ShowHero), nil
	case "log.level":
		return cfg.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// configShow prints the effective configuration, secrets masked.
func configShow() error {
	cfg := config.Global()

	fmt.Println("[backend]")
	fmt.Printf("  base_url     = %s\n", cfg.Backend.BaseURL)
	fmt.Printf("  clear_url    = %s\n", cfg.Backend.ClearURL)
	fmt.Printf("  timeout_secs = %d\n", cfg.Backend.TimeoutSecs)

	fmt.Println("[auth]")
	fmt.Printf("  url     = %s\n", cfg.Auth.URL)
	fmt.Printf("  api_key = %s\n", maskKey(cfg.Auth.APIKey))

	fmt.Println("[history]")
	fmt.Printf("  store       = %s\n", cfg.History.Store)
	fmt.Printf("  url         = %s\n", cfg.History.URL)
	fmt.Printf("  api_key     = %s\n", maskKey(cfg.History.APIKey))
	fmt.Printf("  fetch_limit = %d\n", cfg.History.FetchLimit)

	fmt.Println("[audio]")
	fmt.Printf("  capture_command = %s\n", cfg.Audio.CaptureCommand)
	fmt.Printf("  player_command  = %s\n", cfg.Audio.PlayerCommand)
	fmt.Printf("  sound_effects   = %t\n", cfg.Audio.SoundEffects)
	fmt.Printf("  sample_rate     = %d\n", cfg.Audio.SampleRate)

	fmt.Println("[ui]")
	fmt.Printf("  theme     = %s\n", cfg.UI.Theme)
	fmt.Printf("  show_hero = %t\n", cfg.UI.ShowHero)

	fmt.Println("[log]")
	fmt.Printf("  level = %s\n", cfg.Log.Level)

	return nil
}

// configSet updates one key and writes the file back.
func configSet(args Args) error {
	if args.ConfigKey == "" {
		return fmt.Errorf("usage: docchat config set KEY VALUE")
	}

	cfg := config.Global()
	if err := applyConfigKey(cfg, args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	config.SetGlobal(cfg)

	fmt.Println(styles.RenderSuccess(fmt.Sprintf("%s = %s", args.ConfigKey, args.ConfigVal)))
	return nil
}

// applyConfigKey sets a section.field key on the configuration.
func applyConfigKey(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "backend.base_url":
		cfg.Backend.BaseURL = value
	case "backend.clear_url":
		cfg.Backend.ClearURL = value
	case "backend.timeout_secs":
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			return fmt.Errorf("backend.timeout_secs must be a positive integer")
		}
		cfg.Backend.TimeoutSecs = secs
	case "auth.url":
		cfg.Auth.URL = value
	case "auth.api_key":
		cfg.Auth.APIKey = value
	case "history.store":
		cfg.History.Store = strings.ToLower(value)
	case "history.url":
		cfg.History.URL = value
	case "history.api_key":
		cfg.History.APIKey = value
	case "history.fetch_limit":
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			return fmt.Errorf("history.fetch_limit must be a positive integer")
		}
		cfg.History.FetchLimit = limit
	case "audio.capture_command":
		cfg.Audio.CaptureCommand = value
	case "audio.player_command":
		cfg.Audio.PlayerCommand = value
	case "audio.sound_effects":
		cfg.Audio.SoundEffects = value == "1" || strings.EqualFold(value, "true")
	case "audio.sample_rate":
		rate, err := strconv.Atoi(value)
		if err != nil || rate <= 0 {
			return fmt.Errorf("audio.sample_rate must be a positive integer")
		}
		cfg.Audio.SampleRate = rate
	case "ui.theme":
		cfg.UI.Theme = strings.ToLower(value)
	case "ui.show_hero":
		cfg.UI.ShowHero = value == "1" || strings.EqualFold(value, "true")
	case "log.level":
		cfg.Log.Level = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// maskKey hides all but the last four characters of an API key.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
