// Package store provides the per-bot session store interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/meetsync/recall-relay/internal/domain"
)

// SessionStore persists transcript fragments and chat messages keyed by bot
// identifier. Sequences are created lazily on first append and are strictly
// append-only: duplicate webhook deliveries produce duplicate entries.
type SessionStore interface {
	// AppendTranscript appends a transcript fragment to the bot's sequence.
	AppendTranscript(ctx context.Context, botID string, fragment domain.TranscriptFragment) error

	// AppendChatMessage appends a chat message to the bot's sequence.
	AppendChatMessage(ctx context.Context, botID string, msg domain.ChatMessage) error

	// Transcripts returns the bot's transcript fragments in arrival order.
	// An unknown bot yields an empty slice, not an error.
	Transcripts(ctx context.Context, botID string) ([]domain.TranscriptFragment, error)

	// ChatMessages returns the bot's chat messages in arrival order.
	ChatMessages(ctx context.Context, botID string) ([]domain.ChatMessage, error)

	// CleanupExpiredSessions removes sessions with no activity within ttl and
	// returns the number of bots removed.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
