package extraction

import (
	"errors"
	"testing"

	"github.com/ashureev/wah-sales/internal/domain"
)

func TestDecodeInitialProfile(t *testing.T) {
	got, err := decodeInitialProfile([]byte(`{"para_quien": "mi hija", "edad": null}`))
	if err != nil {
		t.Fatalf("decodeInitialProfile error: %v", err)
	}
	if got.ForWhom != "mi hija" || got.Age != domain.AgeNotFound {
		t.Errorf("unexpected profile: %+v", got)
	}

	if _, err := decodeInitialProfile([]byte(`{"edad": 9}`)); !errors.Is(err, errMissingField) {
		t.Errorf("expected errMissingField, got %v", err)
	}
	if _, err := decodeInitialProfile([]byte(`not json`)); !errors.Is(err, errMalformedJSON) {
		t.Errorf("expected errMalformedJSON, got %v", err)
	}
	if _, err := decodeInitialProfile([]byte("  ")); !errors.Is(err, errEmptyOutput) {
		t.Errorf("expected errEmptyOutput, got %v", err)
	}
}

func TestDecodePlan(t *testing.T) {
	got, err := decodePlan([]byte(`{"plan_recomendado": " Avanzado "}`))
	if err != nil {
		t.Fatalf("decodePlan error: %v", err)
	}
	if got != domain.PlanAdvanced {
		t.Errorf("decodePlan = %q", got)
	}

	if _, err := decodePlan([]byte(`{"plan_recomendado": "premium"}`)); !errors.Is(err, domain.ErrUnknownPlan) {
		t.Errorf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestDecodeIntent(t *testing.T) {
	got, err := decodeIntent([]byte(`{"intencion": "negativa"}`))
	if err != nil {
		t.Fatalf("decodeIntent error: %v", err)
	}
	if got != domain.IntentNegative {
		t.Errorf("decodeIntent = %q", got)
	}
	if _, err := decodeIntent([]byte(`{"intencion": "quizás"}`)); !errors.Is(err, domain.ErrUnknownIntent) {
		t.Errorf("expected ErrUnknownIntent, got %v", err)
	}
}

func TestDecodeScheduling(t *testing.T) {
	got, err := decodeScheduling([]byte(`{"numero_telefono": "5551234567", "dia_preferido": "viernes", "hora_preferida": ""}`))
	if err != nil {
		t.Fatalf("decodeScheduling error: %v", err)
	}
	if got.Day == nil || *got.Day != "viernes" {
		t.Errorf("Day = %v", got.Day)
	}
	if got.Time != nil {
		t.Errorf("empty time should decode to nil, got %q", *got.Time)
	}

	if _, err := decodeScheduling([]byte(`{"numero_telefono": "llámame"}`)); !errors.Is(err, domain.ErrInvalidPhone) {
		t.Errorf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestDecodePitch(t *testing.T) {
	if _, err := decodePitch([]byte(`{"propuesta": ""}`)); !errors.Is(err, errMissingField) {
		t.Errorf("expected errMissingField, got %v", err)
	}
}
