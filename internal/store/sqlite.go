package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/meetsync/recall-relay/internal/domain"
	"github.com/meetsync/recall-relay/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ SessionStore = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed session store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS bots (
		bot_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bots_updated ON bots(updated_at);

	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bot_id TEXT NOT NULL,
		fragment TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_bot ON transcripts(bot_id);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bot_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_bot ON chat_messages(bot_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendTranscript appends a transcript fragment to the bot's sequence.
func (s *SQLiteStore) AppendTranscript(ctx context.Context, botID string, fragment domain.TranscriptFragment) error {
	return s.appendWithRetry(ctx, func(ctx context.Context) error {
		now := time.Now().Unix()
		if err := s.touchBot(ctx, botID, now); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO transcripts (bot_id, fragment, created_at) VALUES (?, ?, ?)`,
			botID, string(fragment), now,
		)
		if err != nil {
			return fmt.Errorf("insert transcript: %w", err)
		}
		return nil
	})
}

// AppendChatMessage appends a chat message to the bot's sequence.
func (s *SQLiteStore) AppendChatMessage(ctx context.Context, botID string, msg domain.ChatMessage) error {
	return s.appendWithRetry(ctx, func(ctx context.Context) error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal chat message: %w", err)
		}
		now := time.Now().Unix()
		if err := s.touchBot(ctx, botID, now); err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO chat_messages (bot_id, sender_name, message, created_at) VALUES (?, ?, ?, ?)`,
			botID, msg.Sender.Name, string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
		return nil
	})
}

// touchBot lazily creates the bot row and bumps its activity timestamp.
func (s *SQLiteStore) touchBot(ctx context.Context, botID string, now int64) error {
	query := `
	INSERT INTO bots (bot_id, created_at, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(bot_id) DO UPDATE SET updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, botID, now, now); err != nil {
		return fmt.Errorf("touch bot: %w", err)
	}
	return nil
}

// appendWithRetry runs an append with exponential backoff to handle
// SQLITE_BUSY errors from concurrent webhook deliveries.
func (s *SQLiteStore) appendWithRetry(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 50ms, 100ms, 200ms
			slog.Debug("Append failed with SQLITE_BUSY, retrying",
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("append after %d attempts: %w", maxRetries, err)
}

// Transcripts returns the bot's transcript fragments in arrival order.
func (s *SQLiteStore) Transcripts(ctx context.Context, botID string) ([]domain.TranscriptFragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fragment FROM transcripts WHERE bot_id = ? ORDER BY id`, botID)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close transcript rows", "error", closeErr)
		}
	}()

	fragments := []domain.TranscriptFragment{}
	for rows.Next() {
		var fragment string
		if err := rows.Scan(&fragment); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		fragments = append(fragments, domain.TranscriptFragment(fragment))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return fragments, nil
}

// ChatMessages returns the bot's chat messages in arrival order.
func (s *SQLiteStore) ChatMessages(ctx context.Context, botID string) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message FROM chat_messages WHERE bot_id = ? ORDER BY id`, botID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close chat message rows", "error", closeErr)
		}
	}()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan chat message row: %w", err)
		}
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}

// CleanupExpiredSessions removes bots with no activity within ttl.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE bot_id IN (SELECT bot_id FROM bots WHERE updated_at < ?)`,
		threshold); err != nil {
		return 0, fmt.Errorf("cleanup transcripts: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE bot_id IN (SELECT bot_id FROM bots WHERE updated_at < ?)`,
		threshold); err != nil {
		return 0, fmt.Errorf("cleanup chat messages: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM bots WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup bots: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
