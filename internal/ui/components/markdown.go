// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders assistant answers. Backend output is treated
// as untrusted markdown: everything goes through the renderer, which
// escapes raw HTML rather than passing it to the terminal.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer builds a renderer for the given wrap width.
func NewMarkdownRenderer(width int) (*MarkdownRenderer, error) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{renderer: r, width: width}, nil
}

// Render converts markdown to styled terminal text. On failure the raw
// text is returned so an odd answer still reaches the user.
func (m *MarkdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}
	out, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

// Width returns the configured wrap width.
func (m *MarkdownRenderer) Width() int { return m.width }
