// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			var creds struct{ Email, Password string }
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if creds.Email == "ansh@example.com" && creds.Password == "correct" {
				w.Write([]byte(`{"access_token":"tok-123","user":{"id":"u-1","email":"ansh@example.com"}}`))
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
		case r.URL.Path == "/signup":
			var creds struct{ Email, Password string }
			json.NewDecoder(r.Body).Decode(&creds)
			if len(creds.Password) < 6 {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"msg":"Password should be at least 6 characters"}`))
				return
			}
			w.Write([]byte(`{"id":"u-2","email":"` + creds.Email + `"}`))
		case r.URL.Path == "/logout":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSignIn_Success(t *testing.T) {
	srv := newProviderServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	require.Nil(t, c.CurrentUser())

	var transitions []*User
	unsub := c.OnChange(func(u *User) { transitions = append(transitions, u) })
	defer unsub()

	err := c.SignIn(context.Background(), "ansh@example.com", "correct")
	require.NoError(t, err)

	u := c.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "tok-123", c.AccessToken())

	require.Len(t, transitions, 1)
	assert.Equal(t, "u-1", transitions[0].ID)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	srv := newProviderServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	err := c.SignIn(context.Background(), "ansh@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, c.CurrentUser(), "failed sign-in must not establish a session")
	assert.Empty(t, c.AccessToken())
}

func TestSignUp_ValidationError(t *testing.T) {
	srv := newProviderServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	err := c.SignUp(context.Background(), "new@example.com", "123")
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "at least 6 characters")

	assert.NoError(t, c.SignUp(context.Background(), "new@example.com", "long-enough"))
	assert.Nil(t, c.CurrentUser(), "sign-up does not establish a session")
}

func TestSignOut_NotifiesAndClears(t *testing.T) {
	srv := newProviderServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	require.NoError(t, c.SignIn(context.Background(), "ansh@example.com", "correct"))

	var got []*User
	unsub := c.OnChange(func(u *User) { got = append(got, u) })
	defer unsub()

	require.NoError(t, c.SignOut(context.Background()))
	assert.Nil(t, c.CurrentUser())
	assert.Empty(t, c.AccessToken())
	require.Len(t, got, 1)
	assert.Nil(t, got[0], "sign-out notifies subscribers with nil")
}

func TestSignOut_WhenSignedOutIsNoOp(t *testing.T) {
	c := NewClient("http://localhost:0", "anon-key")
	assert.NoError(t, c.SignOut(context.Background()))
}

func TestOnChange_Unsubscribe(t *testing.T) {
	srv := newProviderServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")

	calls := 0
	unsub := c.OnChange(func(*User) { calls++ })
	unsub()

	require.NoError(t, c.SignIn(context.Background(), "ansh@example.com", "correct"))
	assert.Zero(t, calls, "unsubscribed callback must not fire")
}

func TestSignIn_ProviderUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "anon-key")
	err := c.SignIn(context.Background(), "ansh@example.com", "correct")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials, "transport faults are not credential faults")
}
