// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for the docchat CLI.
//
// Command: status
// Aliases: s
//
// Examples:
//   docchat status                Show backend and session status
//   docchat status --json         Raw backend status document
//
// Status Sections:
//   Backend:   Configured origin and the backend's own status report
//   Session:   Signed-in account, if any
//   History:   Configured store
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Cyan).
				MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	valueGoodStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	valueBadStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	valueDimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	statusSeparatorStyle = lipgloss.NewStyle().
				Foreground(styles.Overlay)
)

// =============================================================================
// HANDLE STATUS
// =============================================================================

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	cfg := config.Global()
	client := newBackendClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	raw, statusErr := client.Status(ctx)

	// --json passes the backend's status document through untouched.
	if args.JSON {
		if statusErr != nil {
			return statusErr
		}
		fmt.Println(string(raw))
		return nil
	}

	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(statusTitleStyle.Render("docchat Status"))
	fmt.Println(statusSeparatorStyle.Render(separator))

	fmt.Println(sectionStyle.Render("Backend"))
	fmt.Printf("  %s%s\n", labelStyle.Render("Origin:"), valueStyle.Render(client.BaseURL()))
	if statusErr != nil {
		fmt.Printf("  %s%s\n", labelStyle.Render("Status:"), valueBadStyle.Render("Unreachable"))
		if args.Verbose {
			fmt.Printf("  %s%s\n", labelStyle.Render("Error:"), valueDimStyle.Render(statusErr.Error()))
		}
	} else {
		fmt.Printf("  %s%s\n", labelStyle.Render("Status:"), valueGoodStyle.Render("Online"))
		for _, line := range formatStatusFields(raw) {
			fmt.Println(line)
		}
	}

	fmt.Println(sectionStyle.Render("Session"))
	session, err := loadSession()
	if err != nil {
		fmt.Printf("  %s%s\n", labelStyle.Render("Account:"), valueBadStyle.Render(err.Error()))
	} else if session.Valid() {
		fmt.Printf("  %s%s\n", labelStyle.Render("Account:"), valueGoodStyle.Render(session.User.Email))
	} else {
		fmt.Printf("  %s%s\n", labelStyle.Render("Account:"), valueDimStyle.Render("Not signed in"))
	}

	fmt.Println(sectionStyle.Render("History"))
	storeName := cfg.History.Store
	if storeName == "" {
		storeName = "sqlite"
	}
	fmt.Printf("  %s%s\n", labelStyle.Render("Store:"), valueStyle.Render(storeName))
	if storeName == "remote" {
		fmt.Printf("  %s%s\n", labelStyle.Render("URL:"), valueDimStyle.Render(cfg.History.URL))
	} else if path, pathErr := cfg.HistoryDBPath(); pathErr == nil {
		fmt.Printf("  %s%s\n", labelStyle.Render("Path:"), valueDimStyle.Render(path))
	}
	fmt.Println()

	return nil
}

// formatStatusFields flattens the backend's top-level status fields into
// labeled lines. Nested values are left as JSON.
func formatStatusFields(raw json.RawMessage) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []string{fmt.Sprintf("  %s%s", labelStyle.Render("Report:"), valueDimStyle.Render(string(raw)))}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		var s string
		if err := json.Unmarshal(fields[key], &s); err != nil {
			s = string(fields[key])
		}
		label := strings.Title(strings.ReplaceAll(key, "_", " "))
		lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render(label+":"), valueStyle.Render(s)))
	}
	return lines
}
