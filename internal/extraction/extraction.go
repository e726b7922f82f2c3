// Package extraction maps free text to the structured values the dialogue
// needs. Every operation may fail independently; failures are reported as
// errors wrapping domain.ErrExtraction.
package extraction

import (
	"context"
	"fmt"

	"github.com/ashureev/wah-sales/internal/domain"
)

// Extractor is the structured extraction capability consumed by the
// conversation engine.
type Extractor interface {
	// ExtractInitialProfile finds who the classes are for and their age.
	// Age is domain.AgeNotFound when the text carries none.
	ExtractInitialProfile(ctx context.Context, text string) (domain.InitialProfile, error)

	// RecommendPlan picks a plan tier from motivation, objective and availability.
	RecommendPlan(ctx context.Context, profile domain.CompleteProfile) (domain.PlanKey, error)

	// GeneratePitch writes a sales pitch connecting the profile with the plan.
	GeneratePitch(ctx context.Context, profile domain.CompleteProfile, plan domain.Plan) (string, error)

	// ClassifyIntent classifies the answer to the trial-class offer.
	ClassifyIntent(ctx context.Context, text string) (domain.Intent, error)

	// ExtractScheduling finds the phone number and the preferred day and time.
	ExtractScheduling(ctx context.Context, text string) (domain.SchedulingData, error)
}

// Operation names, shared by logs and the gRPC method paths.
const (
	OpExtractInitialProfile = "ExtractInitialProfile"
	OpRecommendPlan         = "RecommendPlan"
	OpGeneratePitch         = "GeneratePitch"
	OpClassifyIntent        = "ClassifyIntent"
	OpExtractScheduling     = "ExtractScheduling"
)

// Backend names accepted by configuration.
const (
	BackendRules  = "rules"
	BackendOpenAI = "openai"
	BackendGrpc   = "grpc"
)

func failure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrExtraction, err)
}
