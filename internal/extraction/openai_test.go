package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashureev/wah-sales/internal/domain"
)

func newTestOpenAIExtractor(t *testing.T, handler http.HandlerFunc) *OpenAIExtractor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ex, err := NewOpenAIExtractor(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL + "/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewOpenAIExtractor failed: %v", err)
	}
	return ex
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAIExtractorInitialProfile(t *testing.T) {
	var gotRequest map[string]any
	ex := newTestOpenAIExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(`{"para_quien": "mi hijo", "edad": 8}`))
	})

	got, err := ex.ExtractInitialProfile(context.Background(), "para mi hijo de 8 años")
	if err != nil {
		t.Fatalf("ExtractInitialProfile error: %v", err)
	}
	if got.ForWhom != "mi hijo" || got.Age != 8 {
		t.Errorf("unexpected profile: %+v", got)
	}
	if gotRequest["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotRequest["model"])
	}
	format, _ := gotRequest["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("response_format = %v, want json_object", gotRequest["response_format"])
	}
}

func TestOpenAIExtractorMalformedOutput(t *testing.T) {
	ex := newTestOpenAIExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("no es json"))
	})

	_, err := ex.ClassifyIntent(context.Background(), "sí")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestOpenAIExtractorServerError(t *testing.T) {
	ex := newTestOpenAIExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	})

	_, err := ex.RecommendPlan(context.Background(), domain.CompleteProfile{ForWhom: "yo", Age: 30})
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestNewOpenAIExtractorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIExtractor(OpenAIConfig{}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
