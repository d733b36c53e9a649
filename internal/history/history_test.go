// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegeass321/docchat-tui/internal/model"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s Store, userID string, n int) {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		err := s.Save(context.Background(), model.ChatRecord{
			UserID:    userID,
			Role:      role,
			Content:   "turn",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestSQLiteFetch_NewestFirstCapped(t *testing.T) {
	s := newSQLite(t)
	seed(t, s, "u-1", 15)

	records, err := s.Fetch(context.Background(), "u-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 10)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].CreatedAt.After(records[i-1].CreatedAt),
			"records must be ordered newest first")
	}
}

func TestSQLiteFetch_EmptyIsValid(t *testing.T) {
	s := newSQLite(t)
	records, err := s.Fetch(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteFetch_IsolatesUsers(t *testing.T) {
	s := newSQLite(t)
	seed(t, s, "u-1", 4)
	seed(t, s, "u-2", 2)

	records, err := s.Fetch(context.Background(), "u-2", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "u-2", r.UserID)
	}
}

func TestSQLiteSave_AssignsID(t *testing.T) {
	s := newSQLite(t)
	require.NoError(t, s.Save(context.Background(), model.ChatRecord{
		UserID: "u-1", Role: model.RoleUser, Content: "hi", CreatedAt: time.Now(),
	}))

	records, err := s.Fetch(context.Background(), "u-1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
}

func TestSQLiteDeleteAll(t *testing.T) {
	s := newSQLite(t)
	seed(t, s, "u-1", 6)
	seed(t, s, "u-2", 2)

	require.NoError(t, s.DeleteAll(context.Background(), "u-1"))

	gone, err := s.Fetch(context.Background(), "u-1", 10)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := s.Fetch(context.Background(), "u-2", 10)
	require.NoError(t, err)
	assert.Len(t, kept, 2, "delete must not cross user boundaries")
}

// =============================================================================
// REMOTE STORE
// =============================================================================

func TestRemoteFetch_QueryShapeAndAuth(t *testing.T) {
	var gotQuery, gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		w.Write([]byte(`[
			{"id":"r2","user_id":"u-1","role":"assistant","content":"42","created_at":"2025-06-01T12:01:00Z"},
			{"id":"r1","user_id":"u-1","role":"user","content":"q","created_at":"2025-06-01T12:00:00Z"}
		]`))
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, "anon-key", func() string { return "tok-1" })
	records, err := s.Fetch(context.Background(), "u-1", 10)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "user_id=eq.u-1")
	assert.Contains(t, gotQuery, "order=created_at.desc")
	assert.Contains(t, gotQuery, "limit=10")
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "anon-key", gotKey)

	require.Len(t, records, 2)
	assert.Equal(t, model.RoleAssistant, records[0].Role)
	assert.Equal(t, "42", records[0].Content)
}

func TestRemoteFetch_ServerErrorIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"JWT expired"}`))
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, "anon-key", func() string { return "stale" })
	_, err := s.Fetch(context.Background(), "u-1", 10)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "JWT expired")
}

func TestRemoteSave_InsertsRow(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, "anon-key", nil)
	err := s.Save(context.Background(), model.ChatRecord{
		ID: "r1", UserID: "u-1", Role: model.RoleUser, Content: "q", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/rest/v1/chats", gotPath)
}

func TestRemoteDeleteAll_UnreachableIsWriteError(t *testing.T) {
	s := NewRemoteStore("http://127.0.0.1:1", "anon-key", nil)
	err := s.DeleteAll(context.Background(), "u-1")

	var we *WriteError
	require.ErrorAs(t, err, &we)
}
