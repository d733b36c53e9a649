// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the docchat CLI.
//
// Command: ask [question]
//
// Examples:
//   docchat ask "What does the report conclude?"
//   docchat ask --audio question.wav
//   docchat ask --json "Summarize chapter 3"
//
// Flags:
//   -a, --audio FILE    Send a recorded WAV question instead of text
//   --json              Print the raw backend response
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

var transcribedStyle = lipgloss.NewStyle().
	Foreground(styles.TextMuted).
	Italic(true)

// HandleAsk handles the "ask" command: one question, one rendered answer.
// Audio questions are transcribed server-side; the transcription is echoed
// before the answer. When signed in, both turns land in history.
func HandleAsk(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" && args.AudioFile == "" {
		return fmt.Errorf("ask requires a question or --audio FILE")
	}

	var audio []byte
	if args.AudioFile != "" {
		data, err := os.ReadFile(args.AudioFile)
		if err != nil {
			return fmt.Errorf("read audio file: %w", err)
		}
		audio = data
	}

	cfg := config.Global()
	client := newBackendClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout())
	defer cancel()

	resp, err := client.Ask(ctx, query, audio)
	if err != nil {
		return err
	}

	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(resp)
	}

	// Echo what the backend heard before the answer.
	if resp.Transcribed != "" && !args.Quiet {
		fmt.Println(transcribedStyle.Render("You asked: " + resp.Transcribed))
		fmt.Println()
	}
	displayAnswer(resp.Text())

	saveAskTurns(cfg, query, resp.Transcribed, resp.Text())
	return nil
}

// saveAskTurns records the exchange in history when signed in. Failures are
// reported but never fail the ask itself.
func saveAskTurns(cfg *config.Config, query, transcribed, answer string) {
	session, err := loadSession()
	if err != nil || !session.Valid() {
		return
	}

	store, closeStore, err := openHistoryStore(cfg, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history unavailable: %v\n", err)
		return
	}
	defer closeStore()

	question := query
	if question == "" {
		question = transcribed
	}
	if question == "" {
		question = "[Voice message]"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	turns := []model.ChatRecord{
		{UserID: session.UserID(), Role: model.RoleUser, Content: question, CreatedAt: time.Now().UTC()},
		{UserID: session.UserID(), Role: model.RoleAssistant, Content: answer, CreatedAt: time.Now().UTC()},
	}
	for _, rec := range turns {
		if err := store.Save(ctx, rec); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
			return
		}
	}
}
