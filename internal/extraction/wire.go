package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/wah-sales/internal/domain"
)

var (
	errEmptyOutput   = errors.New("empty model output")
	errMissingField  = errors.New("required field missing")
	errMalformedJSON = errors.New("malformed JSON output")
)

// Wire shapes returned by model-backed extractors. Field names follow the
// prompts, which are written in Spanish.

type initialProfileWire struct {
	ForWhom string `json:"para_quien"`
	Age     *int   `json:"edad"`
}

type planWire struct {
	Plan string `json:"plan_recomendado"`
}

type intentWire struct {
	Intent string `json:"intencion"`
}

type schedulingWire struct {
	Phone string  `json:"numero_telefono"`
	Day   *string `json:"dia_preferido"`
	Time  *string `json:"hora_preferida"`
}

type pitchWire struct {
	Pitch string `json:"propuesta"`
}

func decodeWire(raw []byte, v any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return errEmptyOutput
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformedJSON, err)
	}
	return nil
}

func decodeInitialProfile(raw []byte) (domain.InitialProfile, error) {
	var w initialProfileWire
	if err := decodeWire(raw, &w); err != nil {
		return domain.InitialProfile{}, err
	}
	forWhom := strings.TrimSpace(w.ForWhom)
	if forWhom == "" {
		return domain.InitialProfile{}, fmt.Errorf("%w: para_quien", errMissingField)
	}
	age := domain.AgeNotFound
	if w.Age != nil {
		age = *w.Age
	}
	return domain.InitialProfile{ForWhom: forWhom, Age: age}, nil
}

func decodePlan(raw []byte) (domain.PlanKey, error) {
	var w planWire
	if err := decodeWire(raw, &w); err != nil {
		return "", err
	}
	key := domain.PlanKey(strings.ToLower(strings.TrimSpace(w.Plan)))
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownPlan, w.Plan)
	}
	return key, nil
}

func decodeIntent(raw []byte) (domain.Intent, error) {
	var w intentWire
	if err := decodeWire(raw, &w); err != nil {
		return "", err
	}
	return domain.ParseIntent(w.Intent)
}

func decodeScheduling(raw []byte) (domain.SchedulingData, error) {
	var w schedulingWire
	if err := decodeWire(raw, &w); err != nil {
		return domain.SchedulingData{}, err
	}
	data := domain.SchedulingData{
		Phone: strings.TrimSpace(w.Phone),
		Day:   nonEmpty(w.Day),
		Time:  nonEmpty(w.Time),
	}
	if err := data.Validate(); err != nil {
		return domain.SchedulingData{}, err
	}
	return data, nil
}

func decodePitch(raw []byte) (string, error) {
	var w pitchWire
	if err := decodeWire(raw, &w); err != nil {
		return "", err
	}
	pitch := strings.TrimSpace(w.Pitch)
	if pitch == "" {
		return "", fmt.Errorf("%w: propuesta", errMissingField)
	}
	return pitch, nil
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
