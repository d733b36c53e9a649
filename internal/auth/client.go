// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth wraps the hosted identity provider's session contract.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds one identity provider request.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps provider response bodies.
const maxBodySize = 1 << 20

// =============================================================================
// HOSTED PROVIDER CLIENT
// =============================================================================

// Client talks to a GoTrue-style hosted identity endpoint: password grant
// token, signup, and logout over REST. It holds the session in memory; there
// is no token refresh (a known gap carried over from the original design).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu          sync.Mutex
	user        *User
	accessToken string
	lastErrText string

	*notifier
}

// NewClient creates an identity client for the given provider endpoint and
// publishable API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		notifier:   newNotifier(),
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// CurrentUser returns the signed-in user, or nil when signed out.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// AccessToken returns the session token for authorizing store requests,
// or "" when signed out.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// OnChange registers a session transition callback.
func (c *Client) OnChange(fn func(*User)) func() {
	return c.subscribe(fn)
}

// =============================================================================
// PROVIDER WIRE SHAPES
// =============================================================================

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type providerError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

func (e *providerError) text(fallback string) string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	}
	return fallback
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SignIn authenticates with the password grant. On success the session is
// replaced and subscribers are notified.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var tok tokenResponse
	status, err := c.post(ctx, "/token?grant_type=password", credentials{email, password}, &tok)
	if err != nil {
		return err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("identity provider error %d", status)
	}
	if tok.AccessToken == "" || tok.User.ID == "" {
		return fmt.Errorf("identity provider returned an incomplete session")
	}

	c.mu.Lock()
	c.user = &tok.User
	c.accessToken = tok.AccessToken
	u := c.user
	c.mu.Unlock()

	slog.Info("signed in", "user", tok.User.ID)
	c.notify(u)
	return nil
}

// SignUp registers a new account. The provider may require email
// verification before the first sign-in; no session is established here.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	var out json.RawMessage
	status, err := c.post(ctx, "/signup", credentials{email, password}, &out)
	if err != nil {
		return err
	}
	if status >= 400 && status < 500 {
		c.mu.Lock()
		detail := c.lastErrText
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrValidation, detail)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("identity provider error %d", status)
	}
	return nil
}

// SignOut ends the session. The local session is dropped even when the
// provider call fails; subscribers are notified with nil.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.user = nil
	c.accessToken = ""
	c.mu.Unlock()

	defer c.notify(nil)

	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("provider logout failed, local session dropped", "error", err)
		return nil
	}
	defer res.Body.Close()
	io.Copy(io.Discard, io.LimitReader(res.Body, maxBodySize))
	return nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) post(ctx context.Context, path string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return res.StatusCode, err
	}

	if res.StatusCode >= 400 {
		var pe providerError
		json.Unmarshal(data, &pe)
		c.mu.Lock()
		c.lastErrText = pe.text(res.Status)
		c.mu.Unlock()
		return res.StatusCode, nil
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return res.StatusCode, fmt.Errorf("malformed identity provider response: %w", err)
		}
	}
	return res.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
