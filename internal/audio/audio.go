// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio captures microphone input for voice queries. Capture
// runs an external command (ffmpeg, arecord, sox) that streams WAV to
// stdout; the package buffers the stream into a clip while computing a
// live input level for the meter.
package audio

import (
	"errors"
	"fmt"
	"math"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoCaptureCommand = errors.New("no audio capture command configured")
	ErrNotRecording     = errors.New("not recording")
	ErrPermissionDenied = errors.New("microphone access denied")
)

// MediaError wraps a capture-device failure.
type MediaError struct {
	Op  string
	Err error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("audio %s: %v", e.Op, e.Err)
}

func (e *MediaError) Unwrap() error { return e.Err }

// =============================================================================
// TYPES
// =============================================================================

// State tracks whether a capture is in flight.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Clip is a finished capture ready to attach to a query.
type Clip struct {
	Data     []byte
	Filename string
}

// Empty reports whether the clip holds no audio.
func (c Clip) Empty() bool { return len(c.Data) == 0 }

// =============================================================================
// LEVEL METERING
// =============================================================================

// RMSLevel computes the root-mean-square level of little-endian int16
// PCM samples, normalized and clamped to [0, 1]. An empty or odd-length
// buffer yields 0.
func RMSLevel(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		f := float64(s)
		sum += f * f
	}
	level := math.Sqrt(sum/float64(n)) / 32768.0
	return ClampLevel(level)
}

// ClampLevel bounds a meter reading to [0, 1]. NaN maps to 0.
func ClampLevel(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
