// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// HERO / WELCOME SCREEN
// =============================================================================

// HeroRotateInterval is how often the greeting cycles to the next language.
const HeroRotateInterval = 2 * time.Second

// greeting pairs a salutation with the language it is written in.
type greeting struct {
	text string
	tag  language.Tag
}

var greetings = []greeting{
	{"Hello", language.English},
	{"Bonjour", language.French},
	{"Hola", language.Spanish},
	{"Ciao", language.Italian},
	{"Hallo", language.German},
	{"Olá", language.Portuguese},
	{"こんにちは", language.Japanese},
	{"안녕하세요", language.Korean},
	{"नमस्ते", language.Hindi},
	{"مرحبا", language.Arabic},
}

// Hero is the pre-chat welcome panel with a rotating multilingual
// greeting and the configured tagline.
type Hero struct {
	tagline string
	index   int
	namer   display.Namer
}

// NewHero builds a hero panel. tagline comes from configuration.
func NewHero(tagline string) Hero {
	return Hero{
		tagline: tagline,
		namer:   display.Self,
	}
}

// HeroTickMsg advances the greeting rotation.
type HeroTickMsg struct {
	Time time.Time
}

// RotateCmd schedules the next greeting change.
func (h *Hero) RotateCmd() tea.Cmd {
	return tea.Tick(HeroRotateInterval, func(t time.Time) tea.Msg {
		return HeroTickMsg{Time: t}
	})
}

// Advance moves to the next greeting.
func (h *Hero) Advance() {
	h.index = (h.index + 1) % len(greetings)
}

// Greeting returns the current salutation text.
func (h *Hero) Greeting() string {
	return greetings[h.index].text
}

// LanguageName returns the current greeting's language, written in that
// language ("français", "日本語").
func (h *Hero) LanguageName() string {
	return h.namer.Name(greetings[h.index].tag)
}

// View renders the hero box centered in the given width.
func (h *Hero) View(theme *styles.Theme, width int) string {
	g := greetings[h.index]

	lines := []string{
		theme.HeroGreeting.Render(g.text),
		theme.HeroHint.Render(h.namer.Name(g.tag)),
		"",
		theme.HeroTagline.Render(h.tagline),
		"",
		theme.HeroHint.Render("Enter to send  •  Ctrl+R to record  •  Ctrl+U to upload"),
	}
	box := theme.HeroBox.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))

	if width > lipgloss.Width(box) {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
	}
	return box
}
