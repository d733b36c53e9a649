// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth wraps the hosted identity provider's session contract.
//
// Identity, credentials, and token minting all belong to the external
// provider; this package only observes the current-user-or-none session and
// reacts to transitions. Any provider offering sign-in, sign-up, sign-out,
// current-user, and change notification is substitutable behind Provider.
package auth

import (
	"context"
	"errors"
	"sync"
)

// =============================================================================
// CONTRACT
// =============================================================================

// User identifies the authenticated account holder.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider is the capability contract for the external identity service.
type Provider interface {
	// CurrentUser returns the signed-in user, or nil when signed out.
	CurrentUser() *User

	// OnChange registers a callback invoked on every session transition
	// (signed-in <-> signed-out). The returned function unsubscribes.
	OnChange(fn func(*User)) (unsubscribe func())

	// SignIn authenticates with email and password.
	// Fails with ErrInvalidCredentials on rejection.
	SignIn(ctx context.Context, email, password string) error

	// SignUp registers a new account.
	// Fails with ErrValidation on provider-side rejection.
	SignUp(ctx context.Context, email, password string) error

	// SignOut ends the session.
	SignOut(ctx context.Context) error
}

// Error variables for the auth contract.
var (
	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrValidation indicates the provider refused a sign-up.
	ErrValidation = errors.New("sign-up rejected by provider")

	// ErrNotSignedIn indicates an operation that requires a session.
	ErrNotSignedIn = errors.New("not signed in")
)

// =============================================================================
// SUBSCRIPTION FAN-OUT
// =============================================================================

// notifier implements OnChange fan-out shared by Provider implementations.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(*User)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]func(*User))}
}

func (n *notifier) subscribe(fn func(*User)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify(u *User) {
	n.mu.Lock()
	fns := make([]func(*User), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	// Callbacks run outside the lock; a callback may unsubscribe itself.
	for _, fn := range fns {
		fn(u)
	}
}
