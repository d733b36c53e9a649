// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript and
// persisted chat history records.
package model

import (
	"sort"
	"time"
)

// =============================================================================
// CHAT RECORD
// =============================================================================

// ChatRecord is one persisted turn, owned by the external history store.
// Every record belongs to exactly one user. Fetch order is descending by
// CreatedAt; replay order is ascending.
type ChatRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// REPLAY PROJECTION
// =============================================================================

// UserTurns returns only the role=="user" records, sorted ascending by
// CreatedAt. This is the sidebar's display list.
func UserTurns(records []ChatRecord) []ChatRecord {
	var turns []ChatRecord
	for _, r := range records {
		if r.Role == RoleUser {
			turns = append(turns, r)
		}
	}
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})
	return turns
}

// ReplayFrom reconstructs a transcript from the selected point forward: every
// record (both roles) with CreatedAt >= from, sorted ascending, mapped to
// transcript messages. Replay is a time-range projection over the full
// history, not a stored thread id.
func ReplayFrom(records []ChatRecord, from time.Time) []Message {
	var selected []ChatRecord
	for _, r := range records {
		if !r.CreatedAt.Before(from) {
			selected = append(selected, r)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].CreatedAt.Before(selected[j].CreatedAt)
	})

	msgs := make([]Message, 0, len(selected))
	for _, r := range selected {
		msgs = append(msgs, Message{
			Role:      r.Role,
			Content:   r.Content,
			Timestamp: r.CreatedAt,
		})
	}
	return msgs
}
