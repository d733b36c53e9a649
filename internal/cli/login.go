// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Sign-in and sign-out command handlers for the docchat CLI.
//
// Command: login [--signup]
// Command: logout
//
// Examples:
//   docchat login                 Sign in (prompts for credentials)
//   docchat login --signup        Create an account
//   docchat logout                Sign out and drop the local session
//
// The password prompt never echoes. The resulting session is persisted to
// ~/.docchat/session.json so the TUI and later CLI invocations reuse it.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/codegeass321/docchat-tui/internal/auth"
	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// HandleLogin handles the "login" command.
func HandleLogin(args Args) error {
	cfg := config.Global()
	if cfg.Auth.URL == "" {
		return fmt.Errorf("auth.url is not configured; run \"docchat config set auth.url https://...\"")
	}

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	provider := auth.NewClient(cfg.Auth.URL, cfg.Auth.APIKey)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if args.Subcommand == "signup" {
		if err := provider.SignUp(ctx, email, password); err != nil {
			if errors.Is(err, auth.ErrValidation) {
				return fmt.Errorf("sign-up rejected: %w", err)
			}
			return err
		}
		fmt.Println(styles.RenderSuccess("Account created"))
	}

	if err := provider.SignIn(ctx, email, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return fmt.Errorf("invalid email or password")
		}
		return err
	}

	user := provider.CurrentUser()
	if user == nil {
		return fmt.Errorf("provider accepted the sign-in but returned no user")
	}

	session := &auth.Session{User: *user, Token: provider.AccessToken()}
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := auth.SaveSession(path, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	// Sign-in starts a fresh server-side conversation context.
	newBackendClient(cfg).ClearContext(ctx)

	fmt.Println(styles.RenderSuccess("Signed in as " + user.Email))
	return nil
}

// HandleLogout handles the "logout" command.
func HandleLogout(args Args) error {
	cfg := config.Global()

	path, err := sessionPath()
	if err != nil {
		return err
	}
	session, err := auth.LoadSession(path)
	if err != nil {
		// A corrupt session file still gets removed.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Best effort: revoke the token at the provider.
	if session.Valid() && cfg.Auth.URL != "" {
		provider := auth.NewClient(cfg.Auth.URL, cfg.Auth.APIKey)
		if err := provider.SignOut(ctx); err != nil && !errors.Is(err, auth.ErrNotSignedIn) && args.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: provider sign-out failed: %v\n", err)
		}
	}

	if err := auth.ClearSession(path); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	// Sign-out also drops the server-side conversation context.
	newBackendClient(cfg).ClearContext(ctx)

	fmt.Println(styles.RenderSuccess("Signed out"))
	return nil
}

// promptCredentials reads an email and a no-echo password from the terminal.
func promptCredentials() (email, password string, err error) {
	fmt.Print("Email: ")
	reader := bufio.NewReader(os.Stdin)
	email, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read email: %w", err)
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("%q does not look like an email address", email)
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	password = string(raw)
	if password == "" {
		return "", "", fmt.Errorf("password must not be empty")
	}
	return email, password, nil
}
