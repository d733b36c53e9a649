// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/codegeass321/docchat-tui/internal/model"
)

// =============================================================================
// SQLITE STORE
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats(user_id, created_at DESC);
`

// SQLiteStore persists chat turns in a local database. It satisfies the
// same contract as RemoteStore so the rest of the app never cares which
// one is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// modernc.org/sqlite serializes access through a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Fetch returns up to limit records for the user, newest first.
func (s *SQLiteStore) Fetch(ctx context.Context, userID string, limit int) ([]model.ChatRecord, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, created_at
		FROM chats WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer rows.Close()

	var records []model.ChatRecord
	for rows.Next() {
		var rec model.ChatRecord
		var role string
		var created time.Time
		if err := rows.Scan(&rec.ID, &rec.UserID, &role, &rec.Content, &created); err != nil {
			return nil, &FetchError{Err: err}
		}
		rec.Role = model.Role(role)
		rec.CreatedAt = created
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Err: err}
	}
	return records, nil
}

// Save inserts one record, assigning an ID when blank.
func (s *SQLiteStore) Save(ctx context.Context, rec model.ChatRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Role.String(), rec.Content, rec.CreatedAt.UTC())
	if err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// DeleteAll removes every record belonging to the user.
func (s *SQLiteStore) DeleteAll(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE user_id = ?`, userID); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
