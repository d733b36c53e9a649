// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/codegeass321/docchat-tui/internal/util"
)

// SessionFileName is the on-disk session file under the config dir.
const SessionFileName = "session.json"

// SaveSession persists the signed-in session so later invocations skip
// the login prompt. The file carries the access token, so 0600.
func SaveSession(path string, s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// LoadSession reads a persisted session. A missing file is not an
// error; it returns (nil, nil) meaning signed out.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !s.Valid() {
		return nil, nil
	}
	return &s, nil
}

// ClearSession removes the persisted session. Missing file is fine.
func ClearSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
