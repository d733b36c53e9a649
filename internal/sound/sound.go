// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sound plays short interface cues through an external player.
// Cues are fire-and-forget: a missing player, missing file, or failed
// playback never disturbs the interaction that triggered it.
package sound

import (
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Cue identifies one interface sound.
type Cue string

const (
	CueLoginSuccess Cue = "login-success"
	CueLoginFailure Cue = "login-failure"
	CueSend         Cue = "send"
	CueMicOn        Cue = "mic-on"
	CueMicOff       Cue = "mic-off"
	CueSidebar      Cue = "sidebar"
	CueDelete       Cue = "delete"
)

// Player plays cues asynchronously.
type Player struct {
	command string
	dir     string
	enabled bool

	mu      sync.Mutex
	playing map[Cue]bool
}

// NewPlayer builds a player. command is the external playback binary
// plus flags ("" selects a platform default); dir holds the cue files;
// enabled false yields a silent player.
func NewPlayer(command, dir string, enabled bool) *Player {
	if command == "" {
		command = defaultPlayerCommand()
	}
	return &Player{
		command: command,
		dir:     dir,
		enabled: enabled && command != "",
		playing: make(map[Cue]bool),
	}
}

func defaultPlayerCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "afplay"
	case "windows":
		return ""
	default:
		for _, candidate := range []string{"paplay", "aplay", "play"} {
			if _, err := exec.LookPath(candidate); err == nil {
				return candidate
			}
		}
		return ""
	}
}

// Play starts a cue without waiting for it. A cue already in flight is
// not layered on top of itself.
func (p *Player) Play(cue Cue) {
	if p == nil || !p.enabled {
		return
	}

	p.mu.Lock()
	if p.playing[cue] {
		p.mu.Unlock()
		return
	}
	p.playing[cue] = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.playing, cue)
			p.mu.Unlock()
		}()

		parts := strings.Fields(p.command)
		args := append(parts[1:], filepath.Join(p.dir, string(cue)+".wav"))
		if err := exec.Command(parts[0], args...).Run(); err != nil {
			slog.Debug("sound cue failed", "cue", cue, "error", err)
		}
	}()
}
