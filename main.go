// docchat - chat with your documents from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/auth"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/cli"
	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/history"
	"github.com/codegeass321/docchat-tui/internal/sound"
	"github.com/codegeass321/docchat-tui/internal/telemetry"
	"github.com/codegeass321/docchat-tui/internal/ui/chat"
	"github.com/codegeass321/docchat-tui/internal/ui/components"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async operations
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exitOnError(cli.HandleAsk(args))
	case cli.CmdChat:
		exitOnError(cli.HandleChat(args))
	case cli.CmdUpload:
		exitOnError(cli.HandleUpload(args))
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))
	case cli.CmdLogin:
		exitOnError(cli.HandleLogin(args))
	case cli.CmdLogout:
		exitOnError(cli.HandleLogout(args))
	case cli.CmdHistory:
		exitOnError(cli.HandleHistory(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

// exitOnError prints a CLI error to stderr and exits non-zero.
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// runTUI starts the TUI interface.
func runTUI(args cli.Args) {
	cfg := config.Global()

	logger, err := telemetry.InitLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	} else {
		slog.SetDefault(logger)
	}

	theme := styles.NewTheme()

	// A persisted session skips the sign-in screen.
	session, err := loadPersistedSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	m, err := NewModel(theme, cfg, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer m.cleanup()

	// Reload configuration when config.toml changes on disk.
	watcher, err := config.NewWatcher(func(next *config.Config) {
		config.SetGlobal(next)
		slog.Info("configuration reloaded")
	})
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running docchat: %v\n", err)
		os.Exit(1)
	}
}

// loadPersistedSession loads ~/.docchat/session.json if present.
func loadPersistedSession() (*auth.Session, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return auth.LoadSession(filepath.Join(dir, auth.SessionFileName))
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents the current application state.
type State int

const (
	StateAuth State = iota // Sign-in / sign-up screen
	StateChat              // Chat view
)

// authResultMsg reports the outcome of a sign-in or sign-up attempt.
type authResultMsg struct {
	Session *auth.Session
	Err     error
}

// Model is the main Bubble Tea model for the application.
type Model struct {
	state State

	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	// Sign-in screen
	authForm components.AuthForm
	hero     components.Hero

	// Chat view, built once a session exists
	chatModel chat.Model
	hasChat   bool

	// Wiring shared across states
	client   *backend.Client
	provider *auth.Client
	sounds   *sound.Player
	recorder audio.Recorder

	// History store for the signed-in user
	store      history.Store
	closeStore func()

	session *auth.Session
}

// NewModel creates the application model. A valid session goes straight
// to the chat view; otherwise the sign-in screen comes first.
func NewModel(theme *styles.Theme, cfg *config.Config, session *auth.Session) (*Model, error) {
	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.BackendTimeout()),
		backend.WithClearURL(cfg.Backend.ClearURL),
	)

	soundsDir := ""
	if dir, err := config.ConfigDir(); err == nil {
		soundsDir = filepath.Join(dir, "sounds")
	}
	sounds := sound.NewPlayer(cfg.Audio.PlayerCommand, soundsDir, cfg.Audio.SoundEffects)

	recorder := audio.NewCommandRecorder(cfg.Audio.CaptureCommand, cfg.Audio.SampleRate)

	m := &Model{
		state:    StateAuth,
		theme:    theme,
		cfg:      cfg,
		authForm: components.NewAuthForm(),
		hero:     components.NewHero("Chat with your documents"),
		client:   client,
		provider: auth.NewClient(cfg.Auth.URL, cfg.Auth.APIKey),
		sounds:   sounds,
		recorder: recorder,
	}

	if session.Valid() {
		if err := m.enterChat(session); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// enterChat wires the signed-in state: history store and chat model.
func (m *Model) enterChat(session *auth.Session) error {
	store, closeStore, err := openHistoryStore(m.cfg, session)
	if err != nil {
		return err
	}

	m.session = session
	m.store = store
	m.closeStore = closeStore
	m.chatModel = chat.New(m.cfg, m.theme, m.client, store, session, m.recorder, m.sounds)
	m.hasChat = true
	m.state = StateChat

	if m.width > 0 {
		m.chatModel, _ = m.chatModel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}
	return nil
}

// openHistoryStore builds the configured history store for a session.
func openHistoryStore(cfg *config.Config, session *auth.Session) (history.Store, func(), error) {
	if cfg.History.Store == "remote" {
		token := session.Token
		store := history.NewRemoteStore(cfg.History.URL, cfg.History.APIKey,
			func() string { return token })
		return store, func() {}, nil
	}

	path, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// cleanup releases resources on exit.
func (m *Model) cleanup() {
	if m.closeStore != nil {
		m.closeStore()
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	if m.state == StateChat {
		return m.chatModel.Init()
	}
	return tea.Batch(
		m.hero.RotateCmd(),
		m.authForm.Init(),
	)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		if m.hasChat {
			var cmd tea.Cmd
			m.chatModel, cmd = m.chatModel.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case components.HeroTickMsg:
		if m.state == StateAuth {
			m.hero.Advance()
			return m, m.hero.RotateCmd()
		}

	case components.AuthSubmitMsg:
		if m.state == StateAuth && !m.authForm.Busy() {
			m.authForm.SetError("")
			m.authForm.SetBusy(true)
			return m, m.authenticateCmd(msg)
		}
		return m, nil

	case authResultMsg:
		return m.handleAuthResult(msg)
	}

	if m.state == StateChat {
		var cmd tea.Cmd
		m.chatModel, cmd = m.chatModel.Update(msg)
		return m, cmd
	}

	cmd := m.authForm.Update(msg)
	return m, cmd
}

// authenticateCmd runs sign-in (and sign-up first, in sign-up mode)
// against the identity provider.
func (m *Model) authenticateCmd(msg components.AuthSubmitMsg) tea.Cmd {
	provider := m.provider
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if msg.Mode == components.ModeSignUp {
			if err := provider.SignUp(ctx, msg.Email, msg.Password); err != nil {
				return authResultMsg{Err: err}
			}
		}
		if err := provider.SignIn(ctx, msg.Email, msg.Password); err != nil {
			return authResultMsg{Err: err}
		}

		user := provider.CurrentUser()
		if user == nil {
			return authResultMsg{Err: auth.ErrInvalidCredentials}
		}

		// A fresh sign-in starts a fresh server-side conversation context.
		client.ClearContext(ctx)

		return authResultMsg{Session: &auth.Session{User: *user, Token: provider.AccessToken()}}
	}
}

// handleAuthResult finishes or rejects a sign-in attempt.
func (m *Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	m.authForm.SetBusy(false)

	if msg.Err != nil {
		m.sounds.Play(sound.CueLoginFailure)
		m.authForm.SetError(msg.Err.Error())
		return m, nil
	}

	m.sounds.Play(sound.CueLoginSuccess)
	persistSession(msg.Session)

	if err := m.enterChat(msg.Session); err != nil {
		m.authForm.SetError(err.Error())
		return m, nil
	}
	return m, m.chatModel.Init()
}

// persistSession saves the session for later invocations; best effort.
func persistSession(session *auth.Session) {
	dir, err := config.ConfigDir()
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return
	}
	if err := auth.SaveSession(filepath.Join(dir, auth.SessionFileName), session); err != nil {
		slog.Warn("failed to persist session", "error", err)
	}
}

// View renders the current application state.
func (m *Model) View() string {
	if m.state == StateChat {
		return m.chatModel.View()
	}

	hero := m.hero.View(m.theme, m.width)
	form := m.authForm.View(m.theme, m.width)
	return m.theme.App.Render(hero + "\n" + form)
}
