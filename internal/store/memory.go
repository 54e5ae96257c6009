package store

import (
	"context"
	"sync"
	"time"

	"github.com/meetsync/recall-relay/internal/domain"
)

// MemoryStore implements SessionStore with in-process maps. It is the default
// backend when no DB_PATH is configured.
type MemoryStore struct {
	mu           sync.Mutex
	transcripts  map[string][]domain.TranscriptFragment
	chat         map[string][]domain.ChatMessage
	lastActivity map[string]time.Time
	now          func() time.Time
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		transcripts:  make(map[string][]domain.TranscriptFragment),
		chat:         make(map[string][]domain.ChatMessage),
		lastActivity: make(map[string]time.Time),
		now:          time.Now,
	}
}

// AppendTranscript appends a transcript fragment to the bot's sequence.
func (s *MemoryStore) AppendTranscript(_ context.Context, botID string, fragment domain.TranscriptFragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy so callers reusing the underlying buffer can't mutate stored state.
	buf := make(domain.TranscriptFragment, len(fragment))
	copy(buf, fragment)
	s.transcripts[botID] = append(s.transcripts[botID], buf)
	s.lastActivity[botID] = s.now()
	return nil
}

// AppendChatMessage appends a chat message to the bot's sequence.
func (s *MemoryStore) AppendChatMessage(_ context.Context, botID string, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat[botID] = append(s.chat[botID], msg)
	s.lastActivity[botID] = s.now()
	return nil
}

// Transcripts returns the bot's transcript fragments in arrival order.
func (s *MemoryStore) Transcripts(_ context.Context, botID string) ([]domain.TranscriptFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TranscriptFragment, len(s.transcripts[botID]))
	copy(out, s.transcripts[botID])
	return out, nil
}

// ChatMessages returns the bot's chat messages in arrival order.
func (s *MemoryStore) ChatMessages(_ context.Context, botID string) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.chat[botID]))
	copy(out, s.chat[botID])
	return out, nil
}

// CleanupExpiredSessions removes bots with no activity within ttl.
func (s *MemoryStore) CleanupExpiredSessions(_ context.Context, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threshold := s.now().Add(-ttl)
	var removed int64
	for botID, last := range s.lastActivity {
		if last.Before(threshold) {
			delete(s.transcripts, botID)
			delete(s.chat, botID)
			delete(s.lastActivity, botID)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
