// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared wiring used across the docchat CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/codegeass321/docchat-tui/internal/auth"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/history"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// IsStdoutTTY reports whether stdout is an interactive terminal. Markdown
// rendering is skipped for piped output so downstream tools get plain text.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// displayAnswer prints an answer, rendered when stdout is a TTY.
func displayAnswer(answer string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(answer))
		fmt.Println()
	} else {
		fmt.Println(answer)
	}
}

// =============================================================================
// WIRING
// =============================================================================

// newBackendClient builds the backend client from configuration.
func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.BackendTimeout()),
		backend.WithClearURL(cfg.Backend.ClearURL),
	)
}

// sessionPath returns the persisted session file path (~/.docchat/session.json).
func sessionPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, auth.SessionFileName), nil
}

// loadSession loads the persisted session if any. Signed out is (nil, nil).
func loadSession() (*auth.Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	return auth.LoadSession(path)
}

// requireSession loads the persisted session and fails when signed out.
func requireSession() (*auth.Session, error) {
	session, err := loadSession()
	if err != nil {
		return nil, err
	}
	if !session.Valid() {
		return nil, fmt.Errorf("not signed in; run \"docchat login\" first")
	}
	return session, nil
}

// openHistoryStore builds the configured history store. The session's
// access token authorizes remote store requests.
func openHistoryStore(cfg *config.Config, session *auth.Session) (history.Store, func(), error) {
	if cfg.History.Store == "remote" {
		token := ""
		if session != nil {
			token = session.Token
		}
		store := history.NewRemoteStore(cfg.History.URL, cfg.History.APIKey,
			func() string { return token })
		return store, func() {}, nil
	}

	path, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// historyFetchLimit returns the configured fetch limit.
func historyFetchLimit(cfg *config.Config) int {
	if cfg.History.FetchLimit > 0 {
		return cfg.History.FetchLimit
	}
	return history.DefaultFetchLimit
}

// =============================================================================
// FORMATTING
// =============================================================================

// formatDuration formats a time.Duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
