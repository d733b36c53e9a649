// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file creates the tea.Cmd values that perform chat I/O. Commands
// run off the Update loop and report back via the message types in
// messages.go.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/history"
	"github.com/codegeass321/docchat-tui/internal/model"
)

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

// askCmd submits a query. Either text or clip may be empty, not both;
// the caller guarantees that before dispatching.
func askCmd(client *backend.Client, timeout time.Duration, text string, clip audio.Clip) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp, err := client.Ask(ctx, text, clip.Data)
		return AskResultMsg{Resp: resp, Err: err, HadAudio: !clip.Empty()}
	}
}

// uploadCmd sends documents to the backend corpus.
func uploadCmd(client *backend.Client, timeout time.Duration, paths []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		resp, err := client.Upload(ctx, paths)
		return UploadResultMsg{Resp: resp, Err: err, Count: len(paths)}
	}
}

// clearContextCmd resets the backend conversation context. Best-effort;
// it produces no message.
func clearContextCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client.ClearContext(ctx)
		return nil
	}
}

// =============================================================================
// HISTORY COMMANDS
// =============================================================================

// fetchHistoryCmd loads the user's recent turns for the sidebar.
func fetchHistoryCmd(store history.Store, userID string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		records, err := store.Fetch(ctx, userID, limit)
		return HistoryLoadedMsg{Records: records, Err: err}
	}
}

// saveTurnCmd persists one turn in the background.
func saveTurnCmd(store history.Store, rec model.ChatRecord) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return HistorySavedMsg{Err: store.Save(ctx, rec)}
	}
}

// deleteHistoryCmd removes all of the user's turns.
func deleteHistoryCmd(store history.Store, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return HistoryDeletedMsg{Err: store.DeleteAll(ctx, userID)}
	}
}

// =============================================================================
// AUDIO COMMANDS
// =============================================================================

// startRecordingCmd begins microphone capture.
func startRecordingCmd(rec audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		return RecordingStartedMsg{Err: rec.Start()}
	}
}

// stopRecordingCmd ends capture and delivers the clip.
func stopRecordingCmd(rec audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		clip, err := rec.Stop()
		return ClipReadyMsg{Clip: clip, Err: err}
	}
}

// listenLevelCmd waits for the next meter reading. The handler
// re-arms it after each LevelMsg while recording continues; the
// timeout lets the waiter wind down once capture stops.
func listenLevelCmd(rec audio.Recorder) tea.Cmd {
	return func() tea.Msg {
		select {
		case level, ok := <-rec.Levels():
			if !ok {
				return nil
			}
			return LevelMsg{Level: level}
		case <-time.After(250 * time.Millisecond):
			if rec.State() != audio.StateRecording {
				return nil
			}
			return LevelMsg{Level: 0}
		}
	}
}
