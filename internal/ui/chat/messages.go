// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the message types flowing through the chat Update
// loop. All I/O completes by delivering one of these.
package chat

import (
	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/model"
)

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// AskResultMsg delivers the outcome of a query to the backend.
type AskResultMsg struct {
	Resp     *backend.AskResponse
	Err      error
	HadAudio bool
}

// UploadResultMsg delivers the outcome of a document upload.
type UploadResultMsg struct {
	Resp  *backend.UploadResponse
	Err   error
	Count int
}

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistoryLoadedMsg delivers a history fetch for the sidebar.
type HistoryLoadedMsg struct {
	Records []model.ChatRecord
	Err     error
}

// HistorySavedMsg reports a background turn save. Failures surface as a
// warning toast; the conversation itself is unaffected.
type HistorySavedMsg struct {
	Err error
}

// HistoryDeletedMsg reports the outcome of a confirmed delete-all.
type HistoryDeletedMsg struct {
	Err error
}

// =============================================================================
// AUDIO MESSAGES
// =============================================================================

// RecordingStartedMsg reports whether capture began.
type RecordingStartedMsg struct {
	Err error
}

// LevelMsg carries one microphone meter reading.
type LevelMsg struct {
	Level float64
}

// ClipReadyMsg delivers the finished capture after stop.
type ClipReadyMsg struct {
	Clip audio.Clip
	Err  error
}
