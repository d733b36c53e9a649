// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript and
// persisted chat history records.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one the transcript understands.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in the transcript. Messages are view
// state only: their identity is their position in the ordered transcript,
// and they are lost on exit unless reloaded from history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Pending marks an audio-only user turn whose content is a transcribing
	// placeholder until the backend reports the transcription.
	Pending bool `json:"-"`
}

// NewUserMessage creates a user turn with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewPendingUserMessage creates an audio-only user turn awaiting transcription.
func NewPendingUserMessage() Message {
	return Message{Role: RoleUser, Timestamp: time.Now(), Pending: true}
}

// NewAssistantMessage creates an assistant turn with the given content.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered in-memory message list. It is only ever appended
// to from completion handlers; a pending turn's content may be resolved in
// place once the transcription arrives.
type Transcript struct {
	Messages []Message
}

// NewTranscript creates a transcript seeded with the given greeting.
func NewTranscript(greeting string) *Transcript {
	t := &Transcript{}
	if greeting != "" {
		t.Append(NewAssistantMessage(greeting))
	}
	return t
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.Messages = append(t.Messages, msg)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// Last returns a pointer to the most recent message, or nil if empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[len(t.Messages)-1]
}

// ResolvePending replaces the content of the most recent pending user turn
// with the transcribed text. Returns false if no pending turn exists; the
// transcript is never rolled back either way.
func (t *Transcript) ResolvePending(transcribed string) bool {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		m := &t.Messages[i]
		if m.Role == RoleUser && m.Pending {
			m.Content = transcribed
			m.Pending = false
			return true
		}
	}
	return false
}

// Replace swaps the transcript contents wholesale. Used by history replay.
func (t *Transcript) Replace(msgs []Message) {
	t.Messages = msgs
}

// NewID generates a unique identifier for records and sessions.
func NewID() string {
	return uuid.NewString()
}
