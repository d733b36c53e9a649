// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

func TestToastManager_NewestFirstCapped(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 7; i++ {
		m.AddError("boom")
	}
	toasts := m.Toasts()
	if len(toasts) != 5 {
		t.Fatalf("len(toasts) = %d, want 5", len(toasts))
	}
	if toasts[0].ID <= toasts[1].ID {
		t.Error("toasts must be ordered newest first")
	}
}

func TestToastManager_TickExpires(t *testing.T) {
	m := NewToastManager()
	id := m.AddStatus("done")

	// force-expire by rewinding creation
	m.mutex.Lock()
	for i := range m.toasts {
		if m.toasts[i].ID == id {
			m.toasts[i].CreatedAt = time.Now().Add(-time.Minute)
		}
	}
	m.mutex.Unlock()

	if remaining := m.Tick(); len(remaining) != 0 {
		t.Errorf("Tick() kept %d expired toasts", len(remaining))
	}
}

func TestToastManager_Remove(t *testing.T) {
	m := NewToastManager()
	id := m.AddWarning("careful")
	m.AddError("boom")

	m.Remove(id)
	for _, toast := range m.Toasts() {
		if toast.ID == id {
			t.Error("removed toast still present")
		}
	}
	if !m.HasToasts() {
		t.Error("unrelated toast should survive Remove")
	}
}

// =============================================================================
// HERO
// =============================================================================

func TestHero_RotationWrapsAround(t *testing.T) {
	h := NewHero("Ask me anything")
	first := h.Greeting()
	for range greetings {
		h.Advance()
	}
	if h.Greeting() != first {
		t.Errorf("full rotation ended at %q, want %q", h.Greeting(), first)
	}
}

func TestHero_LanguageNameIsEndonym(t *testing.T) {
	h := NewHero("tagline")
	// advance to French
	for h.Greeting() != "Bonjour" {
		h.Advance()
	}
	if got := h.LanguageName(); !strings.EqualFold(got, "français") {
		t.Errorf("LanguageName() = %q, want français", got)
	}
}

// =============================================================================
// AUTH FORM
// =============================================================================

func typeInto(f *AuthForm, text string) {
	for _, r := range text {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestAuthForm_SubmitEmitsCredentials(t *testing.T) {
	f := NewAuthForm()
	typeInto(&f, "ansh@example.com")
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeInto(&f, "hunter22")

	cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter on complete form returned nil cmd")
	}
	msg, ok := cmd().(AuthSubmitMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want AuthSubmitMsg", cmd())
	}
	if msg.Email != "ansh@example.com" || msg.Password != "hunter22" {
		t.Errorf("submitted %q/%q", msg.Email, msg.Password)
	}
	if msg.Mode != ModeSignIn {
		t.Errorf("Mode = %v, want sign in", msg.Mode)
	}
	if !f.Busy() {
		t.Error("form should be busy after submit")
	}
}

func TestAuthForm_RejectsIncompleteInput(t *testing.T) {
	f := NewAuthForm()
	if cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("empty form must not submit")
	}

	typeInto(&f, "not-an-email")
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeInto(&f, "pw")
	if cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("malformed email must not submit")
	}
}

func TestAuthForm_ToggleModeKeepsValues(t *testing.T) {
	f := NewAuthForm()
	typeInto(&f, "ansh@example.com")

	f.ToggleMode()
	if f.Mode() != ModeSignUp {
		t.Fatalf("Mode() = %v after toggle, want sign up", f.Mode())
	}
	if f.email.Value() != "ansh@example.com" {
		t.Error("toggle must not discard typed email")
	}
	f.ToggleMode()
	if f.Mode() != ModeSignIn {
		t.Error("second toggle should return to sign in")
	}
}

func TestAuthForm_BusyIgnoresInput(t *testing.T) {
	f := NewAuthForm()
	f.SetBusy(true)
	typeInto(&f, "x")
	if f.email.Value() != "" {
		t.Error("busy form accepted input")
	}
}

// =============================================================================
// SIDEBAR
// =============================================================================

func sidebarRecords() []model.ChatRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []model.ChatRecord{
		{ID: "3", UserID: "u", Role: model.RoleUser, Content: "third", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "2", UserID: "u", Role: model.RoleAssistant, Content: "answer", CreatedAt: base.Add(time.Minute)},
		{ID: "1", UserID: "u", Role: model.RoleUser, Content: "first", CreatedAt: base},
	}
}

func TestSidebar_ListsUserTurnsOldestFirst(t *testing.T) {
	s := NewSidebar()
	s.SetRecords(sidebarRecords())

	if len(s.items) != 2 {
		t.Fatalf("items = %d, want 2 (assistant rows excluded)", len(s.items))
	}
	if s.items[0].Content != "first" || s.items[1].Content != "third" {
		t.Errorf("order = %q, %q; want oldest first", s.items[0].Content, s.items[1].Content)
	}
}

func TestSidebar_EnterEmitsReplayTimestamp(t *testing.T) {
	s := NewSidebar()
	s.Toggle()
	s.SetRecords(sidebarRecords())

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter on a row returned nil cmd")
	}
	msg, ok := cmd().(SidebarSelectMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want SidebarSelectMsg", cmd())
	}
	want := time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC)
	if !msg.From.Equal(want) {
		t.Errorf("From = %v, want %v", msg.From, want)
	}
}

func TestSidebar_DeleteRequiresConfirm(t *testing.T) {
	s := NewSidebar()
	s.Toggle()
	s.SetRecords(sidebarRecords())

	if cmd := s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}); cmd != nil {
		t.Fatal("first 'd' must not delete")
	}
	if !s.confirming {
		t.Fatal("'d' should arm the confirm step")
	}

	// Esc cancels
	s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if s.confirming {
		t.Fatal("Esc should cancel the confirm step")
	}

	s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("confirmed delete returned nil cmd")
	}
	if _, ok := cmd().(SidebarDeleteMsg); !ok {
		t.Fatalf("cmd produced %T, want SidebarDeleteMsg", cmd())
	}
}

func TestSidebar_EmptyHistoryHasNoDelete(t *testing.T) {
	s := NewSidebar()
	s.Toggle()
	s.SetRecords(nil)

	s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if s.confirming {
		t.Error("empty history must not arm delete")
	}
}

// =============================================================================
// METER
// =============================================================================

func TestMeter_ClampsLevel(t *testing.T) {
	m := NewMeter(20)
	m.SetLevel(2.5)
	if m.Level() != 1 {
		t.Errorf("Level() = %v after over-range set, want 1", m.Level())
	}
	m.SetLevel(-1)
	if m.Level() != 0 {
		t.Errorf("Level() = %v after under-range set, want 0", m.Level())
	}
}

func TestMeter_ViewRendersBadge(t *testing.T) {
	m := NewMeter(10)
	m.SetLevel(0.5)
	view := m.View(styles.NewTheme())
	if !strings.Contains(view, "REC") {
		t.Error("meter view missing recording badge")
	}
}

// =============================================================================
// MARKDOWN / CODE
// =============================================================================

func TestMarkdownRenderer_FallsBackOnNil(t *testing.T) {
	var m *MarkdownRenderer
	if got := m.Render("**bold**"); got != "**bold**" {
		t.Errorf("nil renderer returned %q", got)
	}
}

func TestHighlightFences_PreservesProse(t *testing.T) {
	in := "Before\n```go\nfmt.Println(42)\n```\nAfter"
	out := HighlightFences(in)
	if !strings.Contains(out, "Before") || !strings.Contains(out, "After") {
		t.Error("prose around fences must survive")
	}
	if strings.Contains(out, "```") {
		t.Error("fence markers should be consumed")
	}
}

func TestHighlightFences_UnclosedFenceKeepsContent(t *testing.T) {
	out := HighlightFences("```python\nprint(1)")
	if !strings.Contains(out, "print(1)") {
		t.Error("unclosed fence content lost")
	}
}
