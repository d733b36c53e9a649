// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/history"
	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/sound"
	"github.com/codegeass321/docchat-tui/internal/ui/components"
)

// Update routes messages through the chat state machine.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AskResultMsg:
		return m.handleAskResult(msg)

	case UploadResultMsg:
		return m.handleUploadResult(msg)

	case HistoryLoadedMsg:
		if msg.Err != nil {
			slog.Warn("history fetch failed", "error", msg.Err)
			m.sidebar.SetError("couldn't load history")
			m.toasts.AddWarning("History unavailable: " + msg.Err.Error())
			return m, nil
		}
		m.sidebar.SetRecords(msg.Records)
		return m, nil

	case HistorySavedMsg:
		if msg.Err != nil {
			slog.Warn("history save failed", "error", msg.Err)
			m.toasts.AddWarning("Couldn't save this turn to history")
		}
		return m, nil

	case HistoryDeletedMsg:
		if msg.Err != nil {
			m.toasts.AddError("Delete failed: " + msg.Err.Error())
			return m, nil
		}
		m.sounds.Play(sound.CueDelete)
		m.toasts.AddSuccess("History deleted")
		return m, m.refreshHistory()

	case components.SidebarSelectMsg:
		return m, m.replayFrom(msg)

	case components.SidebarDeleteMsg:
		return m, deleteHistoryCmd(m.store, m.session.UserID())

	case RecordingStartedMsg:
		return m.handleRecordingStarted(msg)

	case LevelMsg:
		m.meter.SetLevel(msg.Level)
		if m.recording {
			return m, listenLevelCmd(m.rec)
		}
		return m, nil

	case ClipReadyMsg:
		m.recording = false
		m.meter.Reset()
		m.sounds.Play(sound.CueMicOff)
		if msg.Err != nil {
			if !errors.Is(msg.Err, audio.ErrNotRecording) {
				m.toasts.AddError("Recording failed: " + msg.Err.Error())
			}
			return m, nil
		}
		return m, m.submitClip(msg.Clip)

	case replayMsg:
		m.transcript.Replace(msg.messages)
		m.sidebar.SetRecords(msg.records)
		m.showHero = false
		m.syncViewport()
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case components.HeroTickMsg:
		if m.showHero {
			m.hero.Advance()
			return m, m.hero.RotateCmd()
		}
		return m, nil
	}

	// spinner frames and other component internals
	var cmds []tea.Cmd
	if cmd := m.spinner.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKey dispatches keyboard input by binding.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// sidebar captures navigation keys while open
	if m.sidebar.Open() && !key.Matches(msg, m.keys.Sidebar) && !key.Matches(msg, m.keys.Quit) {
		return m, m.sidebar.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.Record):
		return m.toggleRecording()

	case key.Matches(msg, m.keys.Upload):
		if m.state == StateSending {
			return m, nil
		}
		m.toggleUploadMode()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.uploadMode {
			m.toggleUploadMode()
		}
		return m, nil

	case key.Matches(msg, m.keys.Sidebar):
		m.sidebar.Toggle()
		m.sounds.Play(sound.CueSidebar)
		if m.sidebar.Open() {
			return m, m.refreshHistory()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	// typing is held while a query is in flight
	if m.state == StateSending {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleRecording starts capture, or stops it and sends the clip.
func (m Model) toggleRecording() (Model, tea.Cmd) {
	if m.state == StateSending {
		return m, nil
	}
	if m.recording {
		return m, stopRecordingCmd(m.rec)
	}
	return m, startRecordingCmd(m.rec)
}

func (m Model) handleRecordingStarted(msg RecordingStartedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		slog.Error("capture start failed", "error", msg.Err)
		if errors.Is(msg.Err, audio.ErrPermissionDenied) {
			m.toasts.AddError("Microphone access denied")
		} else {
			m.toasts.AddError("Couldn't start recording: " + msg.Err.Error())
		}
		return m, nil
	}
	m.recording = true
	m.meter.Reset()
	m.sounds.Play(sound.CueMicOn)
	return m, listenLevelCmd(m.rec)
}

// handleAskResult finishes the send cycle: append the reply or surface
// the failure, then return to Composing either way.
func (m Model) handleAskResult(msg AskResultMsg) (Model, tea.Cmd) {
	m.state = StateComposing
	m.spinner.Stop()

	if msg.Err != nil {
		slog.Error("ask failed", "error", msg.Err)
		m.transcript.Append(model.NewAssistantMessage(askErrorText(msg.Err)))
		m.syncViewport()
		return m, nil
	}

	var cmds []tea.Cmd

	// audio queries resolve their pending turn with the transcription
	if msg.HadAudio {
		transcribed := msg.Resp.Transcribed
		if transcribed == "" {
			transcribed = "[Voice message]"
		}
		m.transcript.ResolvePending(transcribed)
		if cmd := m.saveTurn(model.RoleUser, transcribed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	answer := msg.Resp.Text()
	m.transcript.Append(model.NewAssistantMessage(answer))
	m.syncViewport()
	if cmd := m.saveTurn(model.RoleAssistant, answer); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleUploadResult(msg UploadResultMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		slog.Error("upload failed", "error", msg.Err)
		m.toasts.AddError("Upload failed: " + msg.Err.Error())
		return m, nil
	}
	text := msg.Resp.Message
	if text == "" {
		text = "Documents uploaded"
	}
	m.toasts.AddSuccess(text)
	return m, nil
}

// replayFrom swaps the visible transcript for the stored conversation
// starting at the selected turn.
func (m *Model) replayFrom(msg components.SidebarSelectMsg) tea.Cmd {
	m.sidebar.Toggle()
	from := msg.From
	store, userID, limit := m.store, m.session.UserID(), m.cfg.History.FetchLimit
	return func() tea.Msg {
		loaded := fetchHistoryCmd(store, userID, limit)()
		got, ok := loaded.(HistoryLoadedMsg)
		if !ok || got.Err != nil {
			return loaded
		}
		return replayMsg{messages: model.ReplayFrom(got.Records, from), records: got.Records}
	}
}

// replayMsg carries a rebuilt transcript plus the refreshed records.
type replayMsg struct {
	messages []model.Message
	records  []model.ChatRecord
}

// askErrorText folds the error taxonomy into user-facing text.
func askErrorText(err error) string {
	var te *backend.TransportError
	if errors.As(err, &te) {
		if te.Status == 0 {
			return "[X] Can't reach the backend. Is it running?"
		}
		return "[X] " + te.Message
	}
	var pe *backend.ParseError
	if errors.As(err, &pe) {
		return "[X] The backend sent an unreadable response."
	}
	var fe *history.FetchError
	if errors.As(err, &fe) {
		return "[X] History is unavailable right now."
	}
	return "[X] " + err.Error()
}
