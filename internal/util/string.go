// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the docchat TUI.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum display width, accounting for
// double-width characters that occupy two terminal columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// WordWrap wraps text at word boundaries to the given display width.
// Words longer than the width are broken mid-word.
func WordWrap(s string, width int) string {
	if width <= 0 {
		return s
	}

	var out strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var out strings.Builder
	lineWidth := 0
	for _, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case lineWidth == 0:
			// First word on the line; break it if it alone exceeds width.
			for w > width {
				head := runewidth.Truncate(word, width, "")
				out.WriteString(head + "\n")
				word = strings.TrimPrefix(word, head)
				w = runewidth.StringWidth(word)
			}
			out.WriteString(word)
			lineWidth = w
		case lineWidth+1+w <= width:
			out.WriteString(" " + word)
			lineWidth += 1 + w
		default:
			out.WriteString("\n")
			for w > width {
				head := runewidth.Truncate(word, width, "")
				out.WriteString(head + "\n")
				word = strings.TrimPrefix(word, head)
				w = runewidth.StringWidth(word)
			}
			out.WriteString(word)
			lineWidth = w
		}
	}
	return out.String()
}

// MaxLineWidth returns the display width of the widest line.
func MaxLineWidth(s string) int {
	max := 0
	for _, line := range strings.Split(s, "\n") {
		if w := runewidth.StringWidth(line); w > max {
			max = w
		}
	}
	return max
}
