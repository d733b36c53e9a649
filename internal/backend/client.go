// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the document RAG service.
//
// Retrieval, generation, transcription, and document parsing all live behind
// this API; the client is a thin wrapper that speaks multipart requests and
// surfaces the service's JSON answers. The backend origin is injected from
// configuration; nothing is hardcoded.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout bounds one ask or upload request. Generation over a
	// large corpus is slow; transcription adds more.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// Error variables for common backend failures.
var (
	// ErrNoQuery indicates an ask with neither text nor audio.
	ErrNoQuery = errors.New("ask requires text or audio")

	// ErrNoFiles indicates an upload call with no files.
	ErrNoFiles = errors.New("upload requires at least one file")
)

// TransportError represents a network failure or non-2xx response from the
// backend. Surfaced to the user inline; never retried automatically.
type TransportError struct {
	Status  int    // HTTP status, 0 for network-level failures
	Message string // Best-effort message extracted from the response body
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend unreachable: %s", e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// ParseError represents malformed JSON from the backend. Degraded to a
// generic error message at the UI.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed backend response: %v", e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error { return e.Err }

// =============================================================================
// RESPONSE SHAPES
// =============================================================================

// AskResponse is the backend's answer to a query.
type AskResponse struct {
	Status string `json:"status"`
	// Answer carries the generated reply; some backend revisions use
	// Message instead. Text() folds the two.
	Answer  string `json:"answer"`
	Message string `json:"message"`
	// Transcribed is set when the query arrived as audio.
	Transcribed string `json:"transcribed"`
}

// Text returns the reply regardless of which field the backend used.
func (r *AskResponse) Text() string {
	if r.Answer != "" {
		return r.Answer
	}
	if r.Message != "" {
		return r.Message
	}
	return "[No answer]"
}

// UploadResponse is the backend's acknowledgement of a document upload.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// errorBody is the backend's error envelope, decoded best-effort.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an HTTP client for the RAG backend.
type Client struct {
	baseURL    string
	clearURL   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithClearURL sets the server-side context reset endpoint.
func WithClearURL(url string) Option {
	return func(c *Client) { c.clearURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// ASK
// =============================================================================

// Ask sends a query as multipart form data carrying text and/or a recorded
// audio clip. At least one of text and audio must be present. The backend
// transcribes audio server-side and reports the transcription back.
func (c *Client) Ask(ctx context.Context, text string, audio []byte) (*AskResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(audio) == 0 {
		return nil, ErrNoQuery
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if text != "" {
		if err := mw.WriteField("text", text); err != nil {
			return nil, fmt.Errorf("failed to build ask request: %w", err)
		}
	}
	if len(audio) > 0 {
		part, err := mw.CreateFormFile("audio", "audio.wav")
		if err != nil {
			return nil, fmt.Errorf("failed to build ask request: %w", err)
		}
		if _, err := part.Write(audio); err != nil {
			return nil, fmt.Errorf("failed to build ask request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build ask request: %w", err)
	}

	var resp AskResponse
	if err := c.postMultipart(ctx, c.baseURL+"/ask", &body, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// Upload sends documents to the backend for parsing and indexing. Each path
// becomes one repeated "files" part; the multipart writer sets the content
// type.
func (c *Client) Upload(ctx context.Context, paths []string) (*UploadResponse, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, path := range paths {
		if err := addFilePart(mw, path); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}

	var resp UploadResponse
	if err := c.postMultipart(ctx, c.baseURL+"/upload", &body, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func addFilePart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// STATUS AND CONTEXT RESET
// =============================================================================

// Status probes backend connectivity. The implementation-defined JSON body
// is returned verbatim for display.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseSize))
	if err != nil {
		return nil, &TransportError{Status: res.StatusCode, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &TransportError{Status: res.StatusCode, Message: extractMessage(data, res.Status)}
	}
	if !json.Valid(data) {
		return nil, &ParseError{Err: errors.New("status body is not valid JSON")}
	}
	return json.RawMessage(data), nil
}

// ClearContext resets server-side session context. Invoked around
// sign-in/out; the result has no bearing on client state, so failures are
// logged and swallowed.
func (c *Client) ClearContext(ctx context.Context) {
	if c.clearURL == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clearURL, nil)
	if err != nil {
		slog.Warn("clear context request failed", "error", err)
		return
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("clear context call failed", "error", err)
		return
	}
	defer res.Body.Close()
	io.Copy(io.Discard, io.LimitReader(res.Body, MaxResponseSize))
	slog.Debug("cleared server-side context", "status", res.StatusCode)
}

// =============================================================================
// SHARED REQUEST PLUMBING
// =============================================================================

// postMultipart issues one multipart POST and decodes the 2xx JSON body
// into out. Non-2xx becomes a TransportError carrying the best-effort
// message from the body; undecodable 2xx bodies become ParseError.
func (c *Client) postMultipart(ctx context.Context, url string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return &TransportError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Message: err.Error()}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseSize))
	if err != nil {
		return &TransportError{Status: res.StatusCode, Message: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &TransportError{Status: res.StatusCode, Message: extractMessage(data, res.Status)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error body,
// falling back to the HTTP status line.
func extractMessage(data []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Detail != "" {
			return eb.Detail
		}
	}
	return fallback
}
