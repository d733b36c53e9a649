// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
	"github.com/codegeass321/docchat-tui/internal/util"
)

// =============================================================================
// HISTORY SIDEBAR
// =============================================================================

// SidebarSelectMsg asks the app to replay the conversation from the
// selected turn's timestamp.
type SidebarSelectMsg struct {
	From time.Time
}

// SidebarDeleteMsg asks the app to delete the user's entire history.
// It is only emitted after the confirm step.
type SidebarDeleteMsg struct{}

// Sidebar lists the user's past questions, oldest first, and hosts the
// delete-all flow. Deleting is destructive, so it requires a second
// keypress to confirm.
type Sidebar struct {
	items      []model.ChatRecord
	cursor     int
	open       bool
	confirming bool
	loading    bool
	loadErr    string
}

// NewSidebar returns a closed, empty sidebar.
func NewSidebar() Sidebar {
	return Sidebar{}
}

// Open reports whether the sidebar is visible.
func (s *Sidebar) Open() bool { return s.open }

// Toggle flips visibility. Opening resets the confirm state.
func (s *Sidebar) Toggle() {
	s.open = !s.open
	s.confirming = false
}

// SetLoading marks a history fetch in flight.
func (s *Sidebar) SetLoading(loading bool) {
	s.loading = loading
	if loading {
		s.loadErr = ""
	}
}

// SetError records a failed history fetch.
func (s *Sidebar) SetError(text string) {
	s.loading = false
	s.loadErr = text
}

// SetRecords replaces the listing. Only the user's own questions are
// shown, oldest first, regardless of the order records arrive in.
func (s *Sidebar) SetRecords(records []model.ChatRecord) {
	s.items = model.UserTurns(records)
	s.loading = false
	s.loadErr = ""
	if s.cursor >= len(s.items) {
		s.cursor = len(s.items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Empty reports whether there is nothing to list.
func (s *Sidebar) Empty() bool { return len(s.items) == 0 }

// Update handles navigation while the sidebar is open.
func (s *Sidebar) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !s.open {
		return nil
	}

	switch key.String() {
	case "up", "k":
		s.confirming = false
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		s.confirming = false
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "enter":
		if s.confirming {
			s.confirming = false
			return func() tea.Msg { return SidebarDeleteMsg{} }
		}
		if len(s.items) > 0 {
			from := s.items[s.cursor].CreatedAt
			return func() tea.Msg { return SidebarSelectMsg{From: from} }
		}
	case "d":
		if len(s.items) > 0 {
			s.confirming = true
		}
	case "esc":
		if s.confirming {
			s.confirming = false
		} else {
			s.open = false
		}
	}
	return nil
}

// View renders the sidebar column at the given width and height.
func (s *Sidebar) View(theme *styles.Theme, width, height int) string {
	if !s.open || width <= 0 {
		return ""
	}
	inner := width - 4
	if inner < 8 {
		inner = 8
	}

	lines := []string{theme.SidebarTitle.Render("History"), ""}

	switch {
	case s.loading:
		lines = append(lines, theme.SidebarMeta.Render("loading..."))
	case s.loadErr != "":
		lines = append(lines, theme.AuthError.Render(s.loadErr))
	case len(s.items) == 0:
		lines = append(lines, theme.SidebarMeta.Render("no questions yet"))
	default:
		for i, rec := range s.items {
			label := util.TruncateWidth(rec.Content, inner)
			if i == s.cursor {
				lines = append(lines, theme.SidebarItemSelected.Render(label))
			} else {
				lines = append(lines, theme.SidebarItem.Render(label))
			}
		}
	}

	lines = append(lines, "")
	if s.confirming {
		lines = append(lines, theme.SidebarConfirm.Render("Delete all? Enter to confirm, Esc to cancel"))
	} else if len(s.items) > 0 {
		lines = append(lines, theme.SidebarMeta.Render("Enter load  d delete all  Esc close"))
	} else {
		lines = append(lines, theme.SidebarMeta.Render("Esc close"))
	}

	column := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return theme.Sidebar.Width(width).Height(height).Render(column)
}
