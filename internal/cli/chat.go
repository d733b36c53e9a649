// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the docchat CLI.
//
// Handles the "docchat chat" command, a line-oriented REPL against the
// document backend for terminals where the full TUI is unwanted (ssh,
// scripts, screen readers).
//
// Command: chat
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /upload FILE...     Upload documents to the corpus
//   /history            Show recent questions
//   /clear              Clear the local screen transcript
//   /status             Show backend status
//   /quit, /q           Exit chat
//   Ctrl+C, Ctrl+D      Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/codegeass321/docchat-tui/internal/auth"
	"github.com/codegeass321/docchat-tui/internal/backend"
	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/history"
	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/ui/components"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Indigo).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput provides input history and line editing for the REPL.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	in := &chatInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	in.loadHistory()
	return in
}

func (c *chatInput) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// readInput reads a line with history navigation on the arrow keys.
func (c *chatInput) readInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *chatInput) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	// Input lines may contain document content, so owner-only.
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

func (c *chatInput) close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// chatSession holds the state for an interactive REPL session.
type chatSession struct {
	cfg     *config.Config
	client  *backend.Client
	store   history.Store
	closeFn func()
	session *auth.Session
	quiet   bool
	started time.Time
	asked   int
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) error {
	cfg := config.Global()

	session, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	s := &chatSession{
		cfg:     cfg,
		client:  newBackendClient(cfg),
		session: session,
		quiet:   args.Quiet,
		started: time.Now(),
	}
	if session.Valid() {
		store, closeFn, storeErr := openHistoryStore(cfg, session)
		if storeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: history unavailable: %v\n", storeErr)
		} else {
			s.store = store
			s.closeFn = closeFn
		}
	}
	if s.closeFn != nil {
		defer s.closeFn()
	}

	input := newChatInput()
	defer input.close()

	printChatWelcome(s)

	for {
		line, err := input.readInput(promptStyle.Render("docchat> "))
		if err != nil {
			// Ctrl+C or Ctrl+D ends the session.
			if err == liner.ErrPromptAborted {
				fmt.Println()
				printExitSummary(s)
				return nil
			}
			fmt.Println()
			printExitSummary(s)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, cmdErr := handleSlashCommand(s, line)
			if cmdErr != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render(styles.StatusIndicators.Error), cmdErr)
			}
			if !keepGoing {
				printExitSummary(s)
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			printExitSummary(s)
			return nil
		}

		if err := s.ask(line); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render(styles.StatusIndicators.Error), err)
		}
	}
}

// printChatWelcome prints the session banner.
func printChatWelcome(s *chatSession) {
	if s.quiet {
		return
	}
	fmt.Println()
	fmt.Println(welcomeStyle.Render("docchat"))
	fmt.Println(infoStyle.Render("Backend: " + s.client.BaseURL()))
	if s.session.Valid() {
		fmt.Println(infoStyle.Render("Signed in as " + s.session.User.Email))
	} else {
		fmt.Println(warningStyle.Render("Not signed in; history is off. Run \"docchat login\"."))
	}
	fmt.Println(infoStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()
}

// printExitSummary prints a short session recap on exit.
func printExitSummary(s *chatSession) {
	if s.quiet || s.asked == 0 {
		return
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf("%d question(s) in %s", s.asked, formatDuration(time.Since(s.started)))))
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// ask sends one question and prints the answer with highlighted code fences.
func (s *chatSession) ask(question string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BackendTimeout())
	defer cancel()

	resp, err := s.client.Ask(ctx, question, nil)
	if err != nil {
		return err
	}
	s.asked++

	fmt.Println()
	fmt.Println(components.HighlightFences(resp.Text()))
	fmt.Println()

	s.saveTurn(model.RoleUser, question)
	s.saveTurn(model.RoleAssistant, resp.Text())
	return nil
}

// saveTurn records one turn in history; failures only warn.
func (s *chatSession) saveTurn(role model.Role, content string) {
	if s.store == nil || !s.session.Valid() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := model.ChatRecord{
		UserID:    s.session.UserID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. Returns false to exit the REPL.
func handleSlashCommand(s *chatSession, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help", "/h":
		printSlashHelp()
		return true, nil

	case "/upload":
		if len(fields) < 2 {
			return true, fmt.Errorf("usage: /upload FILE...")
		}
		return true, s.upload(fields[1:])

	case "/history":
		return true, s.printHistory()

	case "/clear":
		fmt.Print("\033[H\033[2J")
		return true, nil

	case "/status":
		return true, s.printStatus()

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

func printSlashHelp() {
	fmt.Println()
	fmt.Println(commandStyle.Render("Commands:"))
	fmt.Println("  /help, /h        Show this help")
	fmt.Println("  /upload FILE...  Upload documents to the corpus")
	fmt.Println("  /history         Show your recent questions")
	fmt.Println("  /clear           Clear the screen")
	fmt.Println("  /status          Show backend status")
	fmt.Println("  /quit, /q        Exit chat")
	fmt.Println()
}

// upload sends documents to the backend corpus.
func (s *chatSession) upload(paths []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BackendTimeout())
	defer cancel()

	resp, err := s.client.Upload(ctx, paths)
	if err != nil {
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("%d file(s) uploaded", len(paths))
	}
	fmt.Println(styles.RenderSuccess(msg))
	return nil
}

// printHistory shows the user's recent questions, newest first.
func (s *chatSession) printHistory() error {
	if s.store == nil || !s.session.Valid() {
		return fmt.Errorf("not signed in; history is off")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := s.store.Fetch(ctx, s.session.UserID(), historyFetchLimit(s.cfg))
	if err != nil {
		return err
	}

	turns := model.UserTurns(records)
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("No history yet."))
		return nil
	}

	fmt.Println()
	for _, rec := range turns {
		ts := rec.CreatedAt.Local().Format("Jan 02 15:04")
		fmt.Printf("  %s  %s\n", infoStyle.Render(ts), rec.Content)
	}
	fmt.Println()
	return nil
}

// printStatus shows the backend's status document.
func (s *chatSession) printStatus() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	raw, err := s.client.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
