// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk_TextOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ask", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "what is RAG?", r.FormValue("text"))
		_, _, err := r.FormFile("audio")
		assert.Error(t, err, "text-only ask must not carry an audio part")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","answer":"Retrieval-augmented generation."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Ask(context.Background(), "what is RAG?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Retrieval-augmented generation.", resp.Text())
	assert.Empty(t, resp.Transcribed)
}

func TestAsk_AudioReportsTranscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("audio")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "audio.wav", hdr.Filename)

		w.Write([]byte(`{"status":"success","answer":"hi there","transcribed":"hello"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Ask(context.Background(), "", []byte("RIFFfakewav"))
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Transcribed)
	assert.Equal(t, "hi there", resp.Text())
}

func TestAsk_RequiresTextOrAudio(t *testing.T) {
	c := NewClient("http://localhost:0")
	_, err := c.Ask(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrNoQuery)
}

func TestAsk_NonOKSurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Please upload and process a document first."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Ask(context.Background(), "question", nil)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.Status)
	assert.Contains(t, te.Message, "upload and process a document")
}

func TestAsk_UnreachableBackend(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Ask(context.Background(), "question", nil)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
}

func TestAsk_MalformedJSONIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Ask(context.Background(), "question", nil)

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.txt")
	two := filepath.Join(dir, "two.txt")
	require.NoError(t, os.WriteFile(one, []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(two, []byte("beta"), 0644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2, "each path becomes one repeated files part")
		assert.Equal(t, "one.txt", files[0].Filename)
		assert.Equal(t, "two.txt", files[1].Filename)

		w.Write([]byte(`{"status":"success","message":"Document processed successfully! You can now ask questions."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Upload(context.Background(), []string{one, two})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "processed successfully")
}

func TestUpload_NoFiles(t *testing.T) {
	c := NewClient("http://localhost:0")
	_, err := c.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestStatus_VerbatimJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/status", r.URL.Path)
		w.Write([]byte(`{"alive":true,"documents":3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	raw, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"alive":true,"documents":3}`, string(raw))
}

func TestClearContext_FailuresAreSwallowed(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("http://localhost:0", WithClearURL(srv.URL+"/api/clear"))
	c.ClearContext(context.Background()) // must not panic or return anything
	assert.True(t, called)

	// No clear URL configured: a silent no-op.
	NewClient("http://localhost:0").ClearContext(context.Background())
}

func TestAsk_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL)
	_, err := c.Ask(ctx, "question", nil)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}
