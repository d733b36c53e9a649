// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/auth"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/history"
	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/sound"
	"github.com/codegeass321/docchat-tui/internal/ui/components"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// COMPOSER STATE
// =============================================================================

// ComposerState is the send cycle's position. Exactly one query is in
// flight at a time; input is held while Sending.
type ComposerState int

const (
	// StateComposing accepts input and submissions.
	StateComposing ComposerState = iota
	// StateSending has a query in flight; further submits are ignored.
	StateSending
)

func (s ComposerState) String() string {
	if s == StateSending {
		return "sending"
	}
	return "composing"
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the signed-in conversation view.
type Model struct {
	theme   *styles.Theme
	keys    KeyMap
	cfg     *config.Config
	client  *backend.Client
	store   history.Store
	session *auth.Session
	rec     audio.Recorder
	sounds  *sound.Player

	transcript *model.Transcript
	markdown   *components.MarkdownRenderer

	input    textinput.Model
	viewport viewport.Model
	spinner  components.Spinner
	sidebar  components.Sidebar
	toasts   *components.ToastManager
	status   components.StatusBar
	meter    components.Meter
	hero     components.Hero

	state      ComposerState
	recording  bool
	uploadMode bool
	showHero   bool
	width     int
	height    int
	ready     bool
}

// New builds a chat model for the signed-in session.
func New(cfg *config.Config, theme *styles.Theme, client *backend.Client, store history.Store, session *auth.Session, rec audio.Recorder, sounds *sound.Player) Model {
	input := textinput.New()
	input.Placeholder = "Ask about your documents..."
	input.CharLimit = 4000
	input.Focus()

	return Model{
		theme:      theme,
		keys:       DefaultKeyMap(),
		cfg:        cfg,
		client:     client,
		store:      store,
		session:    session,
		rec:        rec,
		sounds:     sounds,
		transcript: model.NewTranscript(cfg.UI.Greeting),
		input:      input,
		spinner:    components.NewSpinner("Thinking"),
		sidebar:    components.NewSidebar(),
		toasts:     components.NewToastManager(),
		meter:      components.NewMeter(24),
		hero:       components.NewHero(cfg.UI.Greeting),
		status:     components.StatusBar{Email: session.User.Email},
		showHero:   cfg.UI.ShowHero,
	}
}

// Init kicks off the initial history fetch and the hero rotation.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		fetchHistoryCmd(m.store, m.session.UserID(), m.cfg.History.FetchLimit),
		components.ToastTickCmd(),
	}
	if m.showHero {
		cmds = append(cmds, m.hero.RotateCmd())
	}
	return tea.Batch(cmds...)
}

// State returns the composer state.
func (m *Model) State() ComposerState { return m.state }

// Recording reports whether microphone capture is active.
func (m *Model) Recording() bool { return m.recording }

// Transcript exposes the conversation for the view and tests.
func (m *Model) Transcript() *model.Transcript { return m.transcript }

// toggleUploadMode repurposes the composer line for document paths.
func (m *Model) toggleUploadMode() {
	m.uploadMode = !m.uploadMode
	m.input.Reset()
	if m.uploadMode {
		m.input.Placeholder = "paths to upload, space-separated"
	} else {
		m.input.Placeholder = "Ask about your documents..."
	}
}

// submitUpload sends the typed paths to the backend corpus.
func (m *Model) submitUpload() tea.Cmd {
	paths := strings.Fields(m.input.Value())
	if len(paths) == 0 {
		return nil
	}
	m.toggleUploadMode()
	m.toasts.AddStatus("Uploading...")
	return uploadCmd(m.client, m.cfg.BackendTimeout(), paths)
}

// submit dispatches the composed text. Empty input without audio stays
// in Composing.
func (m *Model) submit() tea.Cmd {
	if m.state == StateSending || m.recording {
		return nil
	}
	if m.uploadMode {
		return m.submitUpload()
	}
	text := m.input.Value()
	if text == "" {
		return nil
	}

	m.showHero = false
	m.transcript.Append(model.NewUserMessage(text))
	m.input.Reset()
	m.state = StateSending
	m.syncViewport()
	m.sounds.Play(sound.CueSend)

	return tea.Batch(
		askCmd(m.client, m.cfg.BackendTimeout(), text, audio.Clip{}),
		m.spinner.Start(),
		m.saveTurn(model.RoleUser, text),
	)
}

// submitClip dispatches a finished recording as an audio-only query.
// The user turn stays pending until the transcription arrives.
func (m *Model) submitClip(clip audio.Clip) tea.Cmd {
	if clip.Empty() {
		return nil
	}
	m.showHero = false
	m.transcript.Append(model.NewPendingUserMessage())
	m.state = StateSending
	m.syncViewport()
	m.sounds.Play(sound.CueSend)

	return tea.Batch(
		askCmd(m.client, m.cfg.BackendTimeout(), "", clip),
		m.spinner.Start(),
	)
}

// saveTurn persists one side of the exchange when signed in.
func (m *Model) saveTurn(role model.Role, content string) tea.Cmd {
	if !m.session.Valid() || content == "" {
		return nil
	}
	return saveTurnCmd(m.store, model.ChatRecord{
		ID:        model.NewID(),
		UserID:    m.session.UserID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// refreshHistory reloads the sidebar listing.
func (m *Model) refreshHistory() tea.Cmd {
	m.sidebar.SetLoading(true)
	return fetchHistoryCmd(m.store, m.session.UserID(), m.cfg.History.FetchLimit)
}
