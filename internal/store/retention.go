package store

import (
	"context"
	"log/slog"
	"time"
)

const retentionSweepInterval = 15 * time.Minute

// StartRetentionWorker runs a background goroutine that periodically removes
// bot sessions with no activity within ttl. Recorded transcripts and chat
// messages are working state for a meeting in progress, not an archive.
func StartRetentionWorker(ctx context.Context, sessions SessionStore, ttl time.Duration) {
	ticker := time.NewTicker(retentionSweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", retentionSweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, sessions, ttl)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, sessions SessionStore, ttl time.Duration) {
	removed, err := sessions.CleanupExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("Retention worker failed to cleanup expired sessions", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Retention worker removed expired sessions", "count", removed)
	}
}
