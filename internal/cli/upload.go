// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload.go - Document upload command handler for the docchat CLI.
//
// Command: upload FILE...
//
// Examples:
//   docchat upload report.pdf
//   docchat upload notes.txt chapter1.md chapter2.md
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/codegeass321/docchat-tui/internal/config"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// HandleUpload handles the "upload" command.
func HandleUpload(args Args) error {
	if len(args.Raw) == 0 {
		return fmt.Errorf("upload requires at least one file")
	}

	// Fail on unreadable paths before any network traffic.
	for _, path := range args.Raw {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory; upload files", path)
		}
	}

	cfg := config.Global()
	client := newBackendClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout())
	defer cancel()

	if !args.Quiet {
		fmt.Printf("Uploading %d file(s) to %s...\n", len(args.Raw), client.BaseURL())
	}

	resp, err := client.Upload(ctx, args.Raw)
	if err != nil {
		return err
	}

	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("%d file(s) uploaded", len(args.Raw))
	}
	fmt.Println(styles.RenderSuccess(msg))
	return nil
}
