// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Chat history command handler for the docchat CLI.
//
// Command: history [--clear --confirm]
//
// Examples:
//   docchat history                   Show your recent questions
//   docchat history --json            Recent records as JSON
//   docchat history --clear --confirm Delete your entire history
//
// Deletion is scoped to the signed-in user and requires --confirm; there
// is no partial delete.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/model"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	session, err := requireSession()
	if err != nil {
		return err
	}

	cfg := config.Global()
	store, closeStore, err := openHistoryStore(cfg, session)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if args.Subcommand == "clear" {
		if !args.Confirm {
			return fmt.Errorf("refusing to delete history without --confirm")
		}
		if err := store.DeleteAll(ctx, session.UserID()); err != nil {
			return err
		}
		fmt.Println(styles.RenderSuccess("History cleared"))
		return nil
	}

	records, err := store.Fetch(ctx, session.UserID(), historyFetchLimit(cfg))
	if err != nil {
		return err
	}

	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	turns := model.UserTurns(records)
	if len(turns) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	for _, rec := range turns {
		ts := rec.CreatedAt.Local().Format("2006-01-02 15:04")
		fmt.Printf("%s  %s\n", ts, rec.Content)
	}
	return nil
}
