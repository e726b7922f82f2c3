package store

import (
	"context"
	"log/slog"
	"time"
)

const defaultJanitorInterval = 5 * time.Minute

// Sweeper removes sessions idle longer than ttl. A SessionStore is one; the
// conversation engine is another that also holds each session's lock.
type Sweeper interface {
	CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error)
}

// StartJanitor runs a background goroutine that periodically deletes
// sessions idle longer than ttl. It stops when ctx is canceled.
func StartJanitor(ctx context.Context, sessions Sweeper, ttl, interval time.Duration) {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session janitor started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepExpired(ctx, sessions, ttl)
			case <-ctx.Done():
				slog.Info("Session janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpired(ctx context.Context, sessions Sweeper, ttl time.Duration) int64 {
	deleted, err := sessions.CleanupExpired(ctx, ttl)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Session janitor sweep interrupted", "error", err)
			return 0
		}
		slog.Error("Session janitor failed to cleanup expired sessions", "error", err)
		return 0
	}
	if deleted > 0 {
		slog.Info("Session janitor removed abandoned sessions", "count", deleted)
	}
	return deleted
}
