package extraction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ashureev/wah-sales/internal/domain"
)

func TestRuleExtractorInitialProfile(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantForWhom string
		wantAge     int
	}{
		{name: "child with age", text: "Necesito clases para mi hijo de 8 años", wantForWhom: "mi hijo", wantAge: 8},
		{name: "no age", text: "clases para mi sobrina", wantForWhom: "mi sobrina", wantAge: domain.AgeNotFound},
		{name: "accented first person", text: "Son para mí, tengo 34", wantForWhom: "yo", wantAge: 34},
		{name: "plain first person", text: "yo, 25 años", wantForWhom: "yo", wantAge: 25},
		{name: "possessive without para", text: "Mis hijas de 12", wantForWhom: "mis hijas", wantAge: 12},
		{name: "name starting with mi", text: "clases para Miguel de 30 años", wantForWhom: "Miguel", wantAge: 30},
		{name: "lowercase name starting with mi", text: "clases para mirna, tiene 12", wantForWhom: "mirna", wantAge: 12},
		{name: "plural pronoun", text: "son para ellas, de 9 y 12", wantForWhom: "ellas", wantAge: 9},
		{name: "singular pronoun", text: "es para ella, tiene 15", wantForWhom: "ella", wantAge: 15},
		{name: "infinitive is not a name", text: "yo quiero clases para aprender, tengo 40", wantForWhom: "yo", wantAge: 40},
	}

	ex := NewRuleExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.ExtractInitialProfile(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ExtractInitialProfile(%q) error: %v", tt.text, err)
			}
			if got.ForWhom != tt.wantForWhom {
				t.Errorf("ForWhom = %q, want %q", got.ForWhom, tt.wantForWhom)
			}
			if got.Age != tt.wantAge {
				t.Errorf("Age = %d, want %d", got.Age, tt.wantAge)
			}
		})
	}
}

func TestRuleExtractorInitialProfileUnknownRecipient(t *testing.T) {
	_, err := NewRuleExtractor().ExtractInitialProfile(context.Background(), "hola")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestRuleExtractorRecommendPlan(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.CompleteProfile
		want    domain.PlanKey
	}{
		{
			name:    "professional goals",
			profile: domain.CompleteProfile{Motivation: "quiero tocar en una banda", Objective: "ser profesional", AvailableTime: "1 hora"},
			want:    domain.PlanAdvanced,
		},
		{
			name:    "hobby",
			profile: domain.CompleteProfile{Motivation: "un hobby para relajarme", Objective: "tocar canciones", AvailableTime: "5 horas"},
			want:    domain.PlanBasic,
		},
		{
			name:    "plenty of time",
			profile: domain.CompleteProfile{Motivation: "me encanta la música", Objective: "tocar canciones", AvailableTime: "4 horas a la semana"},
			want:    domain.PlanIntermediate,
		},
		{
			name:    "little time",
			profile: domain.CompleteProfile{Motivation: "me encanta la música", Objective: "tocar canciones", AvailableTime: "2 horas"},
			want:    domain.PlanBasic,
		},
	}

	ex := NewRuleExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.RecommendPlan(context.Background(), tt.profile)
			if err != nil {
				t.Fatalf("RecommendPlan error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RecommendPlan = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleExtractorPitchMentionsPlanAndGlossary(t *testing.T) {
	plan, err := domain.LookupPlan(domain.PlanIntermediate)
	if err != nil {
		t.Fatalf("LookupPlan: %v", err)
	}
	pitch, err := NewRuleExtractor().GeneratePitch(context.Background(), domain.CompleteProfile{Motivation: "tocar con amigos"}, plan)
	if err != nil {
		t.Fatalf("GeneratePitch error: %v", err)
	}
	if !strings.Contains(pitch, plan.Name) {
		t.Errorf("pitch does not mention plan name %q: %q", plan.Name, pitch)
	}
	if !strings.Contains(pitch, "laboratorio") {
		t.Errorf("pitch does not explain laboratorio: %q", pitch)
	}
}

func TestRuleExtractorClassifyIntent(t *testing.T) {
	tests := []struct {
		text string
		want domain.Intent
	}{
		{text: "Sí, claro", want: domain.IntentAffirmative},
		{text: "me encantaría", want: domain.IntentAffirmative},
		{text: "no, gracias", want: domain.IntentNegative},
		{text: "No.", want: domain.IntentNegative},
		{text: "claro que no", want: domain.IntentNegative},
		{text: "sí… bueno, mejor no", want: domain.IntentNegative},
		{text: "luego te aviso", want: domain.IntentNegative},
		{text: "sí, después de clases me queda bien", want: domain.IntentAffirmative},
		{text: "mmm tal vez", want: domain.IntentNeutral},
		{text: "", want: domain.IntentNeutral},
	}

	ex := NewRuleExtractor()
	for _, tt := range tests {
		got, err := ex.ClassifyIntent(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("ClassifyIntent(%q) error: %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestRuleExtractorScheduling(t *testing.T) {
	got, err := NewRuleExtractor().ExtractScheduling(context.Background(), "Mi número es 555 123 4567, el lunes a las 5pm")
	if err != nil {
		t.Fatalf("ExtractScheduling error: %v", err)
	}
	if got.Phone != "555 123 4567" {
		t.Errorf("Phone = %q", got.Phone)
	}
	if got.Day == nil || *got.Day != "lunes" {
		t.Errorf("Day = %v, want lunes", got.Day)
	}
	if got.Time == nil || *got.Time != "5pm" {
		t.Errorf("Time = %v, want 5pm", got.Time)
	}
}

func TestRuleExtractorSchedulingPhoneFollowedByNumbers(t *testing.T) {
	tests := []struct {
		text      string
		wantPhone string
		wantDay   string
		wantTime  string
	}{
		{text: "555-123-4567 10am el martes", wantPhone: "555-123-4567", wantDay: "martes", wantTime: "10am"},
		{text: "(555) 123-4567 a las 6 el viernes", wantPhone: "(555) 123-4567", wantDay: "viernes", wantTime: "6"},
		{text: "+52 555 123 4567, sábado 11:30", wantPhone: "+52 555 123 4567", wantDay: "sábado", wantTime: "11:30"},
	}

	ex := NewRuleExtractor()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ex.ExtractScheduling(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("ExtractScheduling(%q) error: %v", tt.text, err)
			}
			if got.Phone != tt.wantPhone {
				t.Errorf("Phone = %q, want %q", got.Phone, tt.wantPhone)
			}
			if got.Day == nil || *got.Day != tt.wantDay {
				t.Errorf("Day = %v, want %q", got.Day, tt.wantDay)
			}
			if got.Time == nil || *got.Time != tt.wantTime {
				t.Errorf("Time = %v, want %q", got.Time, tt.wantTime)
			}
		})
	}
}

func TestRuleExtractorConcurrentUse(t *testing.T) {
	ex := NewRuleExtractor()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ex.ExtractInitialProfile(context.Background(), "Clases para MI HIJO de 8 años")
			if err != nil || got.ForWhom != "mi hijo" {
				t.Errorf("ExtractInitialProfile = %+v, %v", got, err)
			}
		}()
	}
	wg.Wait()
}

func TestRuleExtractorSchedulingWithoutPhone(t *testing.T) {
	_, err := NewRuleExtractor().ExtractScheduling(context.Background(), "el martes en la tarde")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestRuleExtractorHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRuleExtractor().ClassifyIntent(ctx, "sí")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
