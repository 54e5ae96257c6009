package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/meetsync/recall-relay/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func TestSQLiteAppendAndReadBack(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fragment := domain.TranscriptFragment(fmt.Sprintf(`{"seq":%d}`, i))
		if err := s.AppendTranscript(ctx, "b1", fragment); err != nil {
			t.Fatalf("append transcript %d failed: %v", i, err)
		}
	}
	msg := domain.ChatMessage{Sender: domain.Sender{Name: "Alice"}, Text: "Private"}
	if err := s.AppendChatMessage(ctx, "b1", msg); err != nil {
		t.Fatalf("append chat message failed: %v", err)
	}

	transcripts, err := s.Transcripts(ctx, "b1")
	if err != nil {
		t.Fatalf("Transcripts failed: %v", err)
	}
	if len(transcripts) != 3 {
		t.Fatalf("expected 3 transcripts, got %d", len(transcripts))
	}
	for i, fragment := range transcripts {
		want := fmt.Sprintf(`{"seq":%d}`, i)
		if string(fragment) != want {
			t.Errorf("fragment %d: expected %s, got %s", i, want, fragment)
		}
	}

	messages, err := s.ChatMessages(ctx, "b1")
	if err != nil {
		t.Fatalf("ChatMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Sender.Name != "Alice" || messages[0].Text != "Private" {
		t.Errorf("unexpected message %+v", messages[0])
	}
}

func TestSQLiteUnknownBotIsEmptyNotError(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	transcripts, err := s.Transcripts(ctx, "nope")
	if err != nil {
		t.Fatalf("Transcripts failed: %v", err)
	}
	if len(transcripts) != 0 {
		t.Errorf("expected no transcripts, got %d", len(transcripts))
	}
}

func TestSQLiteCleanupExpiredSessions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.AppendTranscript(ctx, "b1", domain.TranscriptFragment(`{}`)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.AppendChatMessage(ctx, "b1", domain.ChatMessage{Text: "hi"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// A negative TTL puts the threshold in the future, expiring everything.
	removed, err := s.CleanupExpiredSessions(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed bot, got %d", removed)
	}

	transcripts, err := s.Transcripts(ctx, "b1")
	if err != nil {
		t.Fatalf("Transcripts failed: %v", err)
	}
	if len(transcripts) != 0 {
		t.Errorf("expired bot still has transcripts")
	}
	messages, err := s.ChatMessages(ctx, "b1")
	if err != nil {
		t.Fatalf("ChatMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expired bot still has chat messages")
	}
}

func TestSQLitePing(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
