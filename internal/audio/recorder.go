// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MeterRate caps how often level readings reach the UI.
const MeterRate = 30 // readings per second

// wavHeaderSize is skipped before computing levels; header bytes would
// otherwise spike the meter on the first chunk.
const wavHeaderSize = 44

// =============================================================================
// RECORDER CONTRACT
// =============================================================================

// Recorder captures one clip at a time and reports input levels.
//
// Start while recording is a no-op. Stop while idle returns
// ErrNotRecording. Levels delivers clamped [0, 1] readings while a
// capture is in flight and is drained on Stop.
type Recorder interface {
	Start() error
	Stop() (Clip, error)
	State() State
	Levels() <-chan float64
}

// =============================================================================
// COMMAND RECORDER
// =============================================================================

// CommandRecorder shells out to a capture command that writes WAV to
// stdout. The command string is split on whitespace; an empty string
// selects a platform default.
type CommandRecorder struct {
	command    string
	sampleRate int

	mu     sync.Mutex
	state  State
	cmd    *exec.Cmd
	buf    bytes.Buffer
	done   chan struct{}
	runErr error

	levels  chan float64
	limiter *rate.Limiter
}

// NewCommandRecorder builds a recorder around the configured capture
// command. sampleRate is substituted for the {rate} placeholder.
func NewCommandRecorder(command string, sampleRate int) *CommandRecorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &CommandRecorder{
		command:    command,
		sampleRate: sampleRate,
		levels:     make(chan float64, 8),
		limiter:    rate.NewLimiter(rate.Limit(MeterRate), 1),
	}
}

// DefaultCaptureCommand picks a capture pipeline for the host platform.
// The command must write WAV to stdout and stop cleanly on SIGINT.
func DefaultCaptureCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "ffmpeg -hide_banner -loglevel error -f avfoundation -i :0 -ac 1 -ar {rate} -f wav pipe:1"
	case "windows":
		return "ffmpeg -hide_banner -loglevel error -f dshow -i audio=default -ac 1 -ar {rate} -f wav pipe:1"
	default:
		return "arecord -q -f S16_LE -c 1 -r {rate} -t wav"
	}
}

// State returns the current capture state.
func (r *CommandRecorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Levels returns the meter channel. Readings are throttled; slow
// consumers drop samples rather than stalling capture.
func (r *CommandRecorder) Levels() <-chan float64 { return r.levels }

// Start launches the capture command. Calling Start while a capture is
// already in flight does nothing.
func (r *CommandRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return nil
	}

	command := strings.TrimSpace(r.command)
	if command == "" {
		command = DefaultCaptureCommand()
	}
	command = strings.ReplaceAll(command, "{rate}", fmt.Sprintf("%d", r.sampleRate))

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return ErrNoCaptureCommand
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &MediaError{Op: "start", Err: err}
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		if strings.Contains(err.Error(), "permission denied") {
			return &MediaError{Op: "start", Err: ErrPermissionDenied}
		}
		return &MediaError{Op: "start", Err: err}
	}

	r.cmd = cmd
	r.buf.Reset()
	r.done = make(chan struct{})
	r.runErr = nil
	r.state = StateRecording

	go r.consume(stdout)
	return nil
}

// consume drains the capture stream into the clip buffer and reports
// levels as chunks arrive.
func (r *CommandRecorder) consume(stdout io.Reader) {
	defer close(r.done)

	chunk := make([]byte, 4096)
	total := 0
	for {
		n, err := stdout.Read(chunk)
		if n > 0 {
			r.mu.Lock()
			r.buf.Write(chunk[:n])
			r.mu.Unlock()

			pcm := chunk[:n]
			if total < wavHeaderSize {
				skip := wavHeaderSize - total
				if skip > n {
					skip = n
				}
				pcm = chunk[skip:n]
			}
			total += n

			if len(pcm) > 0 && r.limiter.Allow() {
				select {
				case r.levels <- RMSLevel(pcm):
				default:
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// Stop signals the capture command, waits for the stream to finish, and
// returns the buffered clip. Stop while idle returns ErrNotRecording.
func (r *CommandRecorder) Stop() (Clip, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return Clip{}, ErrNotRecording
	}
	cmd := r.cmd
	done := r.done
	r.mu.Unlock()

	// SIGINT lets ffmpeg/arecord finalize the WAV header
	_ = cmd.Process.Signal(os.Interrupt)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}
	_ = cmd.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateIdle
	r.cmd = nil
	drainLevels(r.levels)

	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())
	r.buf.Reset()

	if len(data) == 0 {
		return Clip{}, &MediaError{Op: "stop", Err: fmt.Errorf("capture produced no audio")}
	}
	return Clip{Data: data, Filename: "audio.wav"}, nil
}

func drainLevels(ch chan float64) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
