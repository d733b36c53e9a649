// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codegeass321/docchat-tui/internal/model"
)

// =============================================================================
// REMOTE STORE (PostgREST)
// =============================================================================

// RemoteStore persists chat turns in a hosted PostgREST table. Row-level
// access is enforced server side from the bearer token, so every request
// carries the caller's session token alongside the project API key.
type RemoteStore struct {
	baseURL    string
	apiKey     string
	table      string
	tokenFn    func() string
	httpClient *http.Client
}

// RemoteOption configures a RemoteStore.
type RemoteOption func(*RemoteStore)

// WithRemoteHTTPClient overrides the HTTP client (tests).
func WithRemoteHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) { s.httpClient = c }
}

// WithTable overrides the table name.
func WithTable(name string) RemoteOption {
	return func(s *RemoteStore) { s.table = name }
}

// NewRemoteStore creates a store against a PostgREST endpoint. tokenFn
// supplies the current session's access token; it is consulted on each
// request so session refreshes take effect without rebuilding the store.
func NewRemoteStore(baseURL, apiKey string, tokenFn func() string, opts ...RemoteOption) *RemoteStore {
	s := &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   "chats",
		tokenFn: tokenFn,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// remoteRecord is the wire shape of one table row.
type remoteRecord struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Fetch returns up to limit records for the user, newest first.
func (s *RemoteStore) Fetch(ctx context.Context, userID string, limit int) ([]model.ChatRecord, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	body, err := s.do(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	var rows []remoteRecord
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode rows: %w", err)}
	}

	records := make([]model.ChatRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.ChatRecord{
			ID:        r.ID,
			UserID:    r.UserID,
			Role:      model.Role(r.Role),
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		})
	}
	return records, nil
}

// Save inserts one record.
func (s *RemoteStore) Save(ctx context.Context, rec model.ChatRecord) error {
	row := remoteRecord{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Role:      rec.Role.String(),
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return &WriteError{Err: err}
	}
	if _, err := s.do(ctx, http.MethodPost, nil, payload); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// DeleteAll removes every record belonging to the user.
func (s *RemoteStore) DeleteAll(ctx context.Context, userID string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	if _, err := s.do(ctx, http.MethodDelete, q, nil); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func (s *RemoteStore) do(ctx context.Context, method string, query url.Values, payload []byte) ([]byte, error) {
	endpoint := s.baseURL + "/rest/v1/" + s.table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.apiKey)
	if s.tokenFn != nil {
		if tok := s.tokenFn(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: %s", method, s.table, statusDetail(resp.StatusCode, data))
	}
	return data, nil
}

// statusDetail pulls the PostgREST error message when present.
func statusDetail(code int, body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", code, e.Message)
	}
	return fmt.Sprintf("HTTP %d", code)
}
