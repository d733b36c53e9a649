// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists per-user chat turns and reads them back for
// the sidebar and conversation replay. Two stores implement the same
// contract: a hosted PostgREST table and a local SQLite database.
package history

import (
	"context"
	"fmt"

	"github.com/codegeass321/docchat-tui/internal/model"
)

// DefaultFetchLimit caps how many records a single fetch returns.
const DefaultFetchLimit = 10

// =============================================================================
// ERRORS
// =============================================================================

// FetchError reports a failed history read. Reads are load-bearing for
// the sidebar, so callers surface these to the user.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("history fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError reports a failed history insert or delete. Writes are
// best-effort: the conversation continues, the user sees a notice.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("history write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store is the persistence contract for chat turns.
//
// Fetch returns at most limit records for the user, newest first.
// An empty result is a valid state, not an error. Save assigns the
// record's ID when blank. DeleteAll removes every record for the user.
type Store interface {
	Fetch(ctx context.Context, userID string, limit int) ([]model.ChatRecord, error)
	Save(ctx context.Context, rec model.ChatRecord) error
	DeleteAll(ctx context.Context, userID string) error
}
