// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

// Session is the signed-in context handed to components that act on the
// user's behalf. Components receive a Session explicitly instead of
// reaching back into the provider.
type Session struct {
	User  User
	Token string
}

// Valid reports whether the session identifies a user.
func (s *Session) Valid() bool {
	return s != nil && s.User.ID != ""
}

// UserID returns the signed-in user's ID, or "" when signed out.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}
