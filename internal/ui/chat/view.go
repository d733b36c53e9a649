// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/ui/components"
)

// resize lays the chat out for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	contentWidth := width - m.sidebarWidth()
	viewportHeight := height - 4 // header, input, status bar
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = viewportHeight
	}

	if r, err := components.NewMarkdownRenderer(contentWidth - 8); err == nil {
		m.markdown = r
	}
	m.input.Width = contentWidth - 6
	m.syncViewport()
}

func (m *Model) sidebarWidth() int {
	if !m.sidebar.Open() {
		return 0
	}
	return m.theme.SidebarWidth()
}

// syncViewport re-renders the transcript and pins the view to the
// latest turn.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript draws every turn as a bubble.
func (m *Model) renderTranscript() string {
	width := m.viewport.Width
	var blocks []string

	for _, msg := range m.transcript.Messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	maxBubble := width * 3 / 4
	if maxBubble < 20 {
		maxBubble = 20
	}

	switch {
	case msg.Pending:
		bubble := m.theme.PendingBubble.MaxWidth(maxBubble).Render("transcribing...")
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)

	case msg.Role == model.RoleUser:
		bubble := m.theme.UserBubble.MaxWidth(maxBubble).Render(msg.Content)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)

	default:
		content := msg.Content
		if m.markdown != nil {
			content = m.markdown.Render(content)
		}
		return m.theme.AssistantBubble.MaxWidth(maxBubble).Render(content)
	}
}

// View renders the whole chat screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var sections []string

	header := m.theme.Header.Width(m.width).Render("docchat")
	sections = append(sections, header)

	body := m.viewport.View()
	if m.showHero && m.transcript.Len() <= 1 {
		body = m.hero.View(m.theme, m.viewport.Width)
	}
	if sidebar := m.sidebar.View(m.theme, m.sidebarWidth(), m.viewport.Height); sidebar != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, sidebar)
	}
	sections = append(sections, body)

	// input row: meter while recording, spinner while sending
	switch {
	case m.recording:
		sections = append(sections, m.theme.InputContainer.Width(m.width).Render(m.meter.View(m.theme)))
	case m.spinner.Active():
		sections = append(sections, m.theme.InputContainer.Width(m.width).Render(m.spinner.View(m.theme)))
	default:
		prompt := m.theme.InputPrompt.Render("> ") + m.input.View()
		sections = append(sections, m.theme.InputContainer.Width(m.width).Render(prompt))
	}

	m.status.Busy = m.state == StateSending
	if m.state == StateSending {
		m.status.Activity = "waiting for answer"
	} else if m.recording {
		m.status.Activity = "recording"
	} else {
		m.status.Activity = ""
	}
	sections = append(sections, m.status.View(m.theme, m.width))

	screen := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.toasts.HasToasts() {
		overlay := components.RenderToasts(m.toasts.Toasts(), m.width)
		screen = lipgloss.JoinVertical(lipgloss.Left, screen, overlay)
	}
	return screen
}
