// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/codegeass321/docchat-tui/internal/audio"
	"github.com/codegeass321/docchat-tui/internal/ui/styles"
)

// =============================================================================
// MICROPHONE LEVEL METER
// =============================================================================

// Meter visualizes the live microphone input level while recording.
type Meter struct {
	level float64
	width int
}

// NewMeter creates a meter of the given bar width.
func NewMeter(width int) Meter {
	if width < 10 {
		width = 10
	}
	return Meter{width: width}
}

// SetLevel stores a reading; out-of-range values are clamped.
func (m *Meter) SetLevel(level float64) {
	m.level = audio.ClampLevel(level)
}

// Level returns the last clamped reading.
func (m *Meter) Level() float64 { return m.level }

// Reset clears the meter when recording stops.
func (m *Meter) Reset() { m.level = 0 }

// View renders the bar: filled cells colored by intensity, the rest as
// track. A recording badge sits to the left.
func (m *Meter) View(theme *styles.Theme) string {
	filled := int(m.level * float64(m.width))
	if filled > m.width {
		filled = m.width
	}

	fillStyle := theme.MeterLow
	switch {
	case m.level > 0.8:
		fillStyle = theme.MeterHigh
	case m.level > 0.5:
		fillStyle = theme.MeterMid
	}

	bar := fillStyle.Render(strings.Repeat("█", filled)) +
		theme.MeterTrack.Render(strings.Repeat("░", m.width-filled))

	return theme.MicBadge.Render("REC") + " " + bar
}
