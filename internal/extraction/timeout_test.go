package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/wah-sales/internal/domain"
)

// blockingExtractor waits for its context on every call.
type blockingExtractor struct {
	RuleExtractor
}

func (blockingExtractor) ClassifyIntent(ctx context.Context, _ string) (domain.Intent, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeoutReportsExtractionFailure(t *testing.T) {
	ex := WithTimeout(blockingExtractor{}, 20*time.Millisecond)

	start := time.Now()
	_, err := ex.ClassifyIntent(context.Background(), "sí")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("call was not bounded, took %s", elapsed)
	}
}

func TestWithTimeoutPassesCallerCancellation(t *testing.T) {
	ex := WithTimeout(blockingExtractor{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := ex.ClassifyIntent(ctx, "sí")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, domain.ErrExtraction) {
		t.Fatal("caller cancellation must not be reported as an extraction failure")
	}
}

func TestWithTimeoutPassesResults(t *testing.T) {
	ex := WithTimeout(NewRuleExtractor(), time.Second)

	got, err := ex.ClassifyIntent(context.Background(), "claro que sí")
	if err != nil {
		t.Fatalf("ClassifyIntent error: %v", err)
	}
	if got != domain.IntentAffirmative {
		t.Errorf("ClassifyIntent = %q", got)
	}
}

func TestWithTimeoutDisabled(t *testing.T) {
	inner := NewRuleExtractor()
	if got := WithTimeout(inner, 0); got != Extractor(inner) {
		t.Fatal("non-positive timeout should return the wrapped extractor")
	}
}
