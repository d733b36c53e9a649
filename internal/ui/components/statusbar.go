// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codegeass321/docchat-tui/internal/ui/styles"
	"github.com/codegeass321/docchat-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the single-line footer: signed-in identity on the left,
// activity in the middle, shortcuts on the right.
type StatusBar struct {
	Email    string
	Activity string
	Busy     bool
}

// shortcut hints shown when space allows
var shortcuts = []struct{ key, desc string }{
	{"Ctrl+R", "record"},
	{"Ctrl+U", "upload"},
	{"Ctrl+H", "history"},
	{"Ctrl+C", "quit"},
}

// View renders the bar across the full width.
func (b *StatusBar) View(theme *styles.Theme, width int) string {
	left := "signed out"
	if b.Email != "" {
		left = b.Email
	}

	var middle string
	if b.Activity != "" {
		if b.Busy {
			middle = theme.StatusBusy.Render(b.Activity)
		} else {
			middle = theme.StatusOnline.Render(b.Activity)
		}
	}

	var right string
	if width >= 80 {
		parts := make([]string, 0, len(shortcuts))
		for _, s := range shortcuts {
			parts = append(parts, theme.ShortcutKey.Render(s.key)+" "+theme.ShortcutDesc.Render(s.desc))
		}
		right = strings.Join(parts, "  ")
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right) - 2
	if gap < 2 {
		left = util.TruncateWidth(left, width/3)
		gap = 2
	}
	half := gap / 2

	line := left + strings.Repeat(" ", half) + middle + strings.Repeat(" ", gap-half) + right
	return theme.StatusBar.Width(width).Render(line)
}
