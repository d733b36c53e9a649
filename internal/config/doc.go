// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docchat.
//
// Configuration is read from ~/.docchat/config.toml with DOCCHAT_* environment
// variables taking precedence, and hot-reloaded while the TUI runs. The
// backend origin, identity provider endpoint, and history store selection all
// live here; nothing is hardcoded in the clients.
package config
