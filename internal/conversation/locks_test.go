package conversation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyedMutexWaitHonorsContext(t *testing.T) {
	k := newKeyedMutex()

	unlock, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting, got %v", err)
	}

	other, err := k.Lock(context.Background(), "b")
	if err != nil {
		t.Fatalf("independent key blocked: %v", err)
	}
	other()

	unlock()
	if n := k.size(); n != 0 {
		t.Fatalf("expected no live entries, got %d", n)
	}
}

func TestKeyedMutexHandsOver(t *testing.T) {
	k := newKeyedMutex()
	unlock, _ := k.Lock(context.Background(), "a")

	acquired := make(chan struct{})
	go func() {
		next, err := k.Lock(context.Background(), "a")
		if err == nil {
			close(acquired)
			next()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released key")
	}
}
