// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/auth"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/sound"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeStore struct {
	records []model.ChatRecord
	saved   []model.ChatRecord
	deleted []string
}

func (s *fakeStore) Fetch(_ context.Context, userID string, limit int) ([]model.ChatRecord, error) {
	out := make([]model.ChatRecord, 0, limit)
	for _, r := range s.records {
		if r.UserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, rec model.ChatRecord) error {
	s.saved = append(s.saved, rec)
	return nil
}

func (s *fakeStore) DeleteAll(_ context.Context, userID string) error {
	s.deleted = append(s.deleted, userID)
	return nil
}

type fakeRecorder struct {
	state  audio.State
	clip   audio.Clip
	levels chan float64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		clip:   audio.Clip{Data: []byte("RIFFdata"), Filename: "audio.wav"},
		levels: make(chan float64, 4),
	}
}

func (r *fakeRecorder) Start() error {
	r.state = audio.StateRecording
	return nil
}

func (r *fakeRecorder) Stop() (audio.Clip, error) {
	if r.state != audio.StateRecording {
		return audio.Clip{}, audio.ErrNotRecording
	}
	r.state = audio.StateIdle
	return r.clip, nil
}

func (r *fakeRecorder) State() audio.State     { return r.state }
func (r *fakeRecorder) Levels() <-chan float64 { return r.levels }

func newTestModel(t *testing.T) (Model, *fakeStore) {
	t.Helper()
	cfg := config.Default()
	store := &fakeStore{}
	session := &auth.Session{User: auth.User{ID: "u-1", Email: "ansh@example.com"}, Token: "tok"}
	m := New(cfg, styles.NewTheme(), backend.NewClient("http://127.0.0.1:1"), store, session, newFakeRecorder(), sound.NewPlayer("", "", false))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, store
}

// =============================================================================
// SEND CYCLE
// =============================================================================

func TestSubmit_AppendsTurnAndHoldsInput(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("what is in the report?")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	if m.State() != StateSending {
		t.Fatalf("State() = %v after submit, want sending", m.State())
	}
	last := m.Transcript().Last()
	if last == nil || last.Role != model.RoleUser || last.Content != "what is in the report?" {
		t.Fatalf("last turn = %+v, want the submitted user turn", last)
	}
	if m.input.Value() != "" {
		t.Error("input must clear on submit")
	}

	// a second Enter while in flight must be ignored
	before := m.Transcript().Len()
	m.input.SetValue("again")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("submit while sending produced a command")
	}
	if m.Transcript().Len() != before {
		t.Error("submit while sending grew the transcript")
	}
}

func TestSubmit_EmptyInputStaysComposing(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty submit produced a command")
	}
	if m.State() != StateComposing {
		t.Errorf("State() = %v, want composing", m.State())
	}
}

func TestAskResult_SuccessAppendsReply(t *testing.T) {
	m, store := newTestModel(t)
	m.input.SetValue("hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = m.Update(AskResultMsg{
		Resp: &backend.AskResponse{Status: "success", Answer: "The report covers Q2."},
	})

	if m.State() != StateComposing {
		t.Fatalf("State() = %v after reply, want composing", m.State())
	}
	last := m.Transcript().Last()
	if last == nil || last.Role != model.RoleAssistant || last.Content != "The report covers Q2." {
		t.Fatalf("last turn = %+v, want assistant reply", last)
	}
	_ = store
}

func TestAskResult_FailureRecoversToComposing(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = m.Update(AskResultMsg{Err: &backend.TransportError{Status: 0, Message: "dial refused"}})

	if m.State() != StateComposing {
		t.Fatalf("State() = %v after failure, want composing", m.State())
	}
	last := m.Transcript().Last()
	if last == nil || last.Role != model.RoleAssistant {
		t.Fatal("failure must append an assistant-side notice")
	}
	if !strings.Contains(last.Content, "Can't reach the backend") {
		t.Errorf("notice = %q, want unreachable-backend text", last.Content)
	}

	// next submit works again
	m.input.SetValue("retry question")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("submit after failure should dispatch")
	}
}

func TestAskResult_BackendErrorMessageSurfaces(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = m.Update(AskResultMsg{Err: &backend.TransportError{Status: 422, Message: "No document uploaded"}})

	last := m.Transcript().Last()
	if !strings.Contains(last.Content, "No document uploaded") {
		t.Errorf("notice = %q, want backend message", last.Content)
	}
}

// =============================================================================
// VOICE QUERIES
// =============================================================================

func TestClipReady_SendsPendingTurn(t *testing.T) {
	m, _ := newTestModel(t)
	m.recording = true

	clip := audio.Clip{Data: []byte("RIFFdata"), Filename: "audio.wav"}
	m, cmd := m.Update(ClipReadyMsg{Clip: clip})
	if cmd == nil {
		t.Fatal("clip did not dispatch a query")
	}
	if m.Recording() {
		t.Error("recording flag must clear")
	}
	last := m.Transcript().Last()
	if last == nil || !last.Pending {
		t.Fatalf("last turn = %+v, want pending user turn", last)
	}
	if m.State() != StateSending {
		t.Errorf("State() = %v, want sending", m.State())
	}
}

func TestAskResult_TranscriptionResolvesPending(t *testing.T) {
	m, store := newTestModel(t)
	m.recording = true
	m, _ = m.Update(ClipReadyMsg{Clip: audio.Clip{Data: []byte("RIFFdata")}})

	m, _ = m.Update(AskResultMsg{
		Resp:     &backend.AskResponse{Status: "success", Answer: "42", Transcribed: "what is the answer"},
		HadAudio: true,
	})

	msgs := m.Transcript().Messages
	var userTurn *model.Message
	for i := range msgs {
		if msgs[i].Role == model.RoleUser {
			userTurn = &msgs[i]
		}
	}
	if userTurn == nil {
		t.Fatal("no user turn in transcript")
	}
	if userTurn.Pending {
		t.Error("pending flag must clear once transcription arrives")
	}
	if userTurn.Content != "what is the answer" {
		t.Errorf("user turn = %q, want transcription", userTurn.Content)
	}

	// both sides of the exchange were queued for persistence
	if len(store.saved) != 2 {
		t.Errorf("saved %d records, want 2", len(store.saved))
	}
}

// =============================================================================
// RECORDING TOGGLE
// =============================================================================

func TestRecordingStart_SetsFlagAndMeter(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := m.Update(RecordingStartedMsg{})
	if !m.Recording() {
		t.Fatal("recording flag not set")
	}
	if cmd == nil {
		t.Fatal("no level listener armed")
	}

	m, _ = m.Update(LevelMsg{Level: 3.5})
	if m.meter.Level() != 1 {
		t.Errorf("meter level = %v, want clamped to 1", m.meter.Level())
	}
	m, _ = m.Update(LevelMsg{Level: -2})
	if m.meter.Level() != 0 {
		t.Errorf("meter level = %v, want clamped to 0", m.meter.Level())
	}
}

func TestRecordingStart_FailureStaysIdle(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = m.Update(RecordingStartedMsg{Err: audio.ErrPermissionDenied})
	if m.Recording() {
		t.Error("failed start must not set recording")
	}
	if !m.toasts.HasToasts() {
		t.Error("failure should raise a toast")
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func historyRecords() []model.ChatRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []model.ChatRecord{
		{ID: "2", UserID: "u-1", Role: model.RoleAssistant, Content: "42", CreatedAt: base.Add(time.Minute)},
		{ID: "1", UserID: "u-1", Role: model.RoleUser, Content: "meaning of life?", CreatedAt: base},
	}
}

func TestHistoryLoaded_PopulatesSidebar(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = m.Update(HistoryLoadedMsg{Records: historyRecords()})

	if m.sidebar.Empty() {
		t.Error("sidebar should list loaded history")
	}
}

func TestHistoryLoaded_ErrorRaisesWarning(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = m.Update(HistoryLoadedMsg{Err: context.DeadlineExceeded})

	if !m.toasts.HasToasts() {
		t.Error("fetch failure should raise a toast")
	}
}

func TestReplay_SwapsTranscript(t *testing.T) {
	m, _ := newTestModel(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m, _ = m.Update(replayMsg{
		messages: model.ReplayFrom(historyRecords(), base),
		records:  historyRecords(),
	})

	if m.Transcript().Len() != 2 {
		t.Fatalf("transcript len = %d, want 2 replayed turns", m.Transcript().Len())
	}
	first := m.Transcript().Messages[0]
	if first.Role != model.RoleUser || first.Content != "meaning of life?" {
		t.Errorf("replay must start at the selected user turn, got %+v", first)
	}
}

func TestHistoryDeleted_RefetchesList(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := m.Update(HistoryDeletedMsg{})
	if cmd == nil {
		t.Error("successful delete must refresh the listing")
	}
	_ = m
}

func TestHistorySaveFailure_DoesNotBreakConversation(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = m.Update(HistorySavedMsg{Err: context.DeadlineExceeded})

	if m.State() != StateComposing {
		t.Error("save failure must not leave composing state")
	}
	if !m.toasts.HasToasts() {
		t.Error("save failure should raise a toast")
	}
}
