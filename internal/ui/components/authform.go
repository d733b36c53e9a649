// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// AUTH FORM
// =============================================================================

// AuthMode selects which credential flow the form submits to.
type AuthMode int

const (
	ModeSignIn AuthMode = iota
	ModeSignUp
)

func (m AuthMode) String() string {
	if m == ModeSignUp {
		return "Sign up"
	}
	return "Sign in"
}

// authField indexes the focusable inputs.
type authField int

const (
	fieldEmail authField = iota
	fieldPassword
)

// AuthSubmitMsg carries the form's credentials to the app.
type AuthSubmitMsg struct {
	Mode     AuthMode
	Email    string
	Password string
}

// AuthForm is one form serving both sign-in and sign-up; only the mode
// parameter differs between the two flows.
type AuthForm struct {
	mode     AuthMode
	email    textinput.Model
	password textinput.Model
	focus    authField
	errText  string
	busy     bool
}

// NewAuthForm builds the form in sign-in mode.
func NewAuthForm() AuthForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.CharLimit = 128

	return AuthForm{
		mode:     ModeSignIn,
		email:    email,
		password: password,
	}
}

// Init returns the cursor blink command for the focused field.
func (f *AuthForm) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the active flow.
func (f *AuthForm) Mode() AuthMode { return f.mode }

// ToggleMode switches between sign-in and sign-up, keeping typed values.
func (f *AuthForm) ToggleMode() {
	if f.mode == ModeSignIn {
		f.mode = ModeSignUp
	} else {
		f.mode = ModeSignIn
	}
	f.errText = ""
}

// SetError shows a failure from the identity provider.
func (f *AuthForm) SetError(text string) {
	f.errText = text
	f.busy = false
}

// SetBusy marks a submission in flight; input is ignored until cleared.
func (f *AuthForm) SetBusy(busy bool) { f.busy = busy }

// Busy reports whether a submission is in flight.
func (f *AuthForm) Busy() bool { return f.busy }

// Update handles key input. Enter on a complete form emits AuthSubmitMsg.
func (f *AuthForm) Update(msg tea.Msg) tea.Cmd {
	if f.busy {
		return nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			f.cycleFocus()
			return nil
		case "ctrl+s":
			f.ToggleMode()
			return nil
		case "enter":
			return f.submit()
		}
	}

	var cmd tea.Cmd
	if f.focus == fieldEmail {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f *AuthForm) cycleFocus() {
	if f.focus == fieldEmail {
		f.focus = fieldPassword
		f.email.Blur()
		f.password.Focus()
	} else {
		f.focus = fieldEmail
		f.password.Blur()
		f.email.Focus()
	}
}

func (f *AuthForm) submit() tea.Cmd {
	email := strings.TrimSpace(f.email.Value())
	password := f.password.Value()

	if email == "" || !strings.Contains(email, "@") {
		f.errText = "Enter a valid email address"
		return nil
	}
	if password == "" {
		f.errText = "Enter a password"
		return nil
	}

	f.errText = ""
	f.busy = true
	mode := f.mode
	return func() tea.Msg {
		return AuthSubmitMsg{Mode: mode, Email: email, Password: password}
	}
}

// View renders the form box.
func (f *AuthForm) View(theme *styles.Theme, width int) string {
	emailStyle := theme.AuthField
	passwordStyle := theme.AuthField
	if f.focus == fieldEmail {
		emailStyle = theme.AuthFieldFocused
	} else {
		passwordStyle = theme.AuthFieldFocused
	}

	var other string
	if f.mode == ModeSignIn {
		other = "need an account? Ctrl+S to sign up"
	} else {
		other = "have an account? Ctrl+S to sign in"
	}

	lines := []string{
		theme.AuthTitle.Render(f.mode.String()),
		"",
		theme.AuthLabel.Render("Email"),
		emailStyle.Render(f.email.View()),
		theme.AuthLabel.Render("Password"),
		passwordStyle.Render(f.password.View()),
	}
	if f.errText != "" {
		lines = append(lines, "", theme.AuthError.Render(f.errText))
	}
	if f.busy {
		lines = append(lines, "", theme.AuthSwitchHint.Render("signing in..."))
	}
	lines = append(lines, "", theme.AuthSwitchHint.Render(other))

	box := theme.AuthBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if width > lipgloss.Width(box) {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
	}
	return box
}
