package store

import (
	"context"
	"testing"
	"time"
)

func TestSweepExpiredRemovesIdleSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	now := time.Now()

	_ = repo.Put(ctx, sampleSession("abandoned", now.Add(-48*time.Hour)))
	_ = repo.Put(ctx, sampleSession("active", now))

	if deleted := sweepExpired(ctx, repo, 24*time.Hour); deleted != 1 {
		t.Fatalf("sweepExpired deleted %d, want 1", deleted)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 remaining session, got %d", repo.Len())
	}
}

func TestStartJanitorSweepsUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewMemory()
	_ = repo.Put(ctx, sampleSession("abandoned", time.Now().Add(-time.Hour)))

	StartJanitor(ctx, repo, time.Minute, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for repo.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not remove the abandoned session")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
