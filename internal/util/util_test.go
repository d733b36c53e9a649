// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"tiny max no ellipsis", "hello", 2, "he"},
		{"multibyte safe", "नमस्ते दुनिया", 6, "नमस..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateWidth_CJK(t *testing.T) {
	// Each CJK character is two columns wide.
	got := TruncateWidth("欢迎欢迎", 7)
	if MaxLineWidth(got) > 7 {
		t.Errorf("TruncateWidth produced width %d > 7: %q", MaxLineWidth(got), got)
	}
}

func TestWordWrap(t *testing.T) {
	got := WordWrap("the quick brown fox jumps", 10)
	for _, line := range []string{got} {
		if MaxLineWidth(line) > 10 {
			t.Errorf("wrapped line too wide: %q", line)
		}
	}

	// Long single word is broken rather than overflowing.
	if w := MaxLineWidth(WordWrap("abcdefghijklmnop", 5)); w > 5 {
		t.Errorf("long word not broken, width %d", w)
	}

	// Existing newlines are preserved.
	if got := WordWrap("a\nb", 10); got != "a\nb" {
		t.Errorf("WordWrap(\"a\\nb\") = %q", got)
	}
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	if err := AtomicWriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q, want %q", got, "data")
	}

	// Overwrite leaves no temp files behind.
	if err := AtomicWriteFile(path, []byte("data2"), 0644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected 1 file in dir, found %d", len(entries))
	}
}
