package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/wah-sales/internal/domain"
)

var errTimedOut = errors.New("timed out")

// timeoutExtractor bounds every call of the wrapped Extractor.
type timeoutExtractor struct {
	next    Extractor
	timeout time.Duration
}

// WithTimeout wraps next so every call runs under its own deadline. A call
// that exceeds the deadline fails with domain.ErrExtraction. Cancellation of
// the caller's context is returned as is. A non-positive timeout returns next
// unchanged.
func WithTimeout(next Extractor, timeout time.Duration) Extractor {
	if timeout <= 0 {
		return next
	}
	return &timeoutExtractor{next: next, timeout: timeout}
}

func bounded[T any](ctx context.Context, timeout time.Duration, op string, call func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := call(callCtx)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		var zero T
		return zero, ctx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrExtraction) {
		var zero T
		return zero, failure(op, fmt.Errorf("%w after %s: %w", errTimedOut, timeout, err))
	}
	return out, err
}

func (t *timeoutExtractor) ExtractInitialProfile(ctx context.Context, text string) (domain.InitialProfile, error) {
	return bounded(ctx, t.timeout, OpExtractInitialProfile, func(ctx context.Context) (domain.InitialProfile, error) {
		return t.next.ExtractInitialProfile(ctx, text)
	})
}

func (t *timeoutExtractor) RecommendPlan(ctx context.Context, profile domain.CompleteProfile) (domain.PlanKey, error) {
	return bounded(ctx, t.timeout, OpRecommendPlan, func(ctx context.Context) (domain.PlanKey, error) {
		return t.next.RecommendPlan(ctx, profile)
	})
}

func (t *timeoutExtractor) GeneratePitch(ctx context.Context, profile domain.CompleteProfile, plan domain.Plan) (string, error) {
	return bounded(ctx, t.timeout, OpGeneratePitch, func(ctx context.Context) (string, error) {
		return t.next.GeneratePitch(ctx, profile, plan)
	})
}

func (t *timeoutExtractor) ClassifyIntent(ctx context.Context, text string) (domain.Intent, error) {
	return bounded(ctx, t.timeout, OpClassifyIntent, func(ctx context.Context) (domain.Intent, error) {
		return t.next.ClassifyIntent(ctx, text)
	})
}

func (t *timeoutExtractor) ExtractScheduling(ctx context.Context, text string) (domain.SchedulingData, error) {
	return bounded(ctx, t.timeout, OpExtractScheduling, func(ctx context.Context) (domain.SchedulingData, error) {
		return t.next.ExtractScheduling(ctx, text)
	})
}
