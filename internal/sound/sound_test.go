// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sound

import (
	"testing"
	"time"
)

func TestPlay_DisabledIsSilent(t *testing.T) {
	p := NewPlayer("definitely-not-a-player", t.TempDir(), false)
	p.Play(CueSend) // must not panic or spawn anything
}

func TestPlay_NilPlayerIsSafe(t *testing.T) {
	var p *Player
	p.Play(CueSend)
}

func TestPlay_FailureIsSwallowed(t *testing.T) {
	p := NewPlayer("definitely-not-a-player", t.TempDir(), true)
	p.Play(CueLoginFailure)

	// wait for the goroutine to run and clear its in-flight mark
	deadline := time.After(2 * time.Second)
	for {
		p.mu.Lock()
		inFlight := len(p.playing)
		p.mu.Unlock()
		if inFlight == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("cue never cleared after failed playback")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPlay_NoSelfLayering(t *testing.T) {
	p := NewPlayer("sleep", t.TempDir(), true)
	// "sleep <dir>/send.wav" fails fast but holds the in-flight mark
	// long enough for the second call to observe it
	p.mu.Lock()
	p.playing[CueSend] = true
	p.mu.Unlock()

	p.Play(CueSend)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing[CueSend] {
		t.Fatal("in-flight mark dropped by duplicate Play")
	}
}
