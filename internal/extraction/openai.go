package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/ashureev/wah-sales/internal/domain"
)

var errNoChoices = errors.New("completion returned no choices")

// OpenAIConfig holds configuration for the OpenAI extractor.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
}

// DefaultOpenAIConfig returns default configuration.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:      string(openai.ChatModelGPT4o),
		MaxRetries: 2,
	}
}

// OpenAIExtractor implements Extractor with chat completions in JSON mode.
type OpenAIExtractor struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

var _ Extractor = (*OpenAIExtractor)(nil)

// NewOpenAIExtractor creates an extractor backed by the OpenAI API.
func NewOpenAIExtractor(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIConfig().Model
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger.Info("OpenAI extractor configured", "model", cfg.Model)

	return &OpenAIExtractor{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// complete runs one chat completion and returns the assistant content.
func (e *OpenAIExtractor) complete(ctx context.Context, system, user string, jsonOutput bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if jsonOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errEmptyOutput
	}
	return content, nil
}

// ExtractInitialProfile implements Extractor.
func (e *OpenAIExtractor) ExtractInitialProfile(ctx context.Context, text string) (domain.InitialProfile, error) {
	out, err := e.complete(ctx, initialProfilePrompt, text, true)
	if err != nil {
		return domain.InitialProfile{}, failure(OpExtractInitialProfile, err)
	}
	profile, err := decodeInitialProfile([]byte(out))
	if err != nil {
		e.logger.Warn("Unusable initial profile output", "error", err)
		return domain.InitialProfile{}, failure(OpExtractInitialProfile, err)
	}
	return profile, nil
}

// RecommendPlan implements Extractor.
func (e *OpenAIExtractor) RecommendPlan(ctx context.Context, profile domain.CompleteProfile) (domain.PlanKey, error) {
	msg, err := profileMessage(profile)
	if err != nil {
		return "", failure(OpRecommendPlan, err)
	}
	out, err := e.complete(ctx, recommendPlanPrompt, msg, true)
	if err != nil {
		return "", failure(OpRecommendPlan, err)
	}
	key, err := decodePlan([]byte(out))
	if err != nil {
		e.logger.Warn("Unusable plan recommendation output", "error", err)
		return "", failure(OpRecommendPlan, err)
	}
	return key, nil
}

// GeneratePitch implements Extractor. The pitch is free text, not JSON.
func (e *OpenAIExtractor) GeneratePitch(ctx context.Context, profile domain.CompleteProfile, plan domain.Plan) (string, error) {
	msg, err := pitchMessage(profile, plan)
	if err != nil {
		return "", failure(OpGeneratePitch, err)
	}
	out, err := e.complete(ctx, salesPitchPrompt, msg, false)
	if err != nil {
		return "", failure(OpGeneratePitch, err)
	}
	return out, nil
}

// ClassifyIntent implements Extractor.
func (e *OpenAIExtractor) ClassifyIntent(ctx context.Context, text string) (domain.Intent, error) {
	out, err := e.complete(ctx, classifyIntentPrompt, text, true)
	if err != nil {
		return "", failure(OpClassifyIntent, err)
	}
	intent, err := decodeIntent([]byte(out))
	if err != nil {
		e.logger.Warn("Unusable intent output", "error", err)
		return "", failure(OpClassifyIntent, err)
	}
	return intent, nil
}

// ExtractScheduling implements Extractor.
func (e *OpenAIExtractor) ExtractScheduling(ctx context.Context, text string) (domain.SchedulingData, error) {
	out, err := e.complete(ctx, schedulingPrompt, text, true)
	if err != nil {
		return domain.SchedulingData{}, failure(OpExtractScheduling, err)
	}
	data, err := decodeScheduling([]byte(out))
	if err != nil {
		e.logger.Warn("Unusable scheduling output", "error", err)
		return domain.SchedulingData{}, failure(OpExtractScheduling, err)
	}
	return data, nil
}
