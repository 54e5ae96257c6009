// Package domain holds the core types shared across the relay.
package domain

import "encoding/json"

// TranscriptFragment is one real-time transcription payload as delivered by
// the bot platform. The platform owns the shape, so it stays opaque here.
type TranscriptFragment = json.RawMessage

// Sender identifies the meeting participant who sent a chat message.
type Sender struct {
	Name string `json:"name"`
}

// ChatMessage is a single in-meeting chat message. Messages are append-only
// and never mutated after recording.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
