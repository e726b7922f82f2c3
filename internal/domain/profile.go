package domain

import (
	"errors"
	"fmt"
	"strings"
)

// AgeNotFound is the age reported by extraction when the text carries none.
const AgeNotFound = -1

// InitialProfile is what the first answer of the dialogue yields.
type InitialProfile struct {
	ForWhom string `json:"for_whom"`
	Age     int    `json:"age"`
}

// HasAge reports whether an age was resolved.
func (p InitialProfile) HasAge() bool {
	return p.Age != AgeNotFound
}

// Profile is accumulated phase by phase. Each field stays nil until the
// phase that captures it has run.
type Profile struct {
	ForWhom       *string `json:"for_whom,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Motivation    *string `json:"motivation,omitempty"`
	Objective     *string `json:"objective,omitempty"`
	AvailableTime *string `json:"available_time,omitempty"`
}

// CompleteProfile is a profile with every field present and validated.
type CompleteProfile struct {
	ForWhom       string `json:"for_whom"`
	Age           int    `json:"age"`
	Motivation    string `json:"motivation"`
	Objective     string `json:"objective"`
	AvailableTime string `json:"available_time"`
}

// Complete validates the profile as a unit.
func (p Profile) Complete() (CompleteProfile, error) {
	var problems []error
	required := func(name string, v *string) string {
		if v == nil || strings.TrimSpace(*v) == "" {
			problems = append(problems, fmt.Errorf("%s is required", name))
			return ""
		}
		return *v
	}

	cp := CompleteProfile{
		ForWhom:       required("for_whom", p.ForWhom),
		Motivation:    required("motivation", p.Motivation),
		Objective:     required("objective", p.Objective),
		AvailableTime: required("available_time", p.AvailableTime),
	}

	switch {
	case p.Age == nil:
		problems = append(problems, errors.New("age is required"))
	case *p.Age <= 0:
		problems = append(problems, errors.New("age must be a positive number"))
	default:
		cp.Age = *p.Age
	}

	if len(problems) > 0 {
		return CompleteProfile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(problems...))
	}
	return cp, nil
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	return Profile{
		ForWhom:       cloneString(p.ForWhom),
		Age:           cloneInt(p.Age),
		Motivation:    cloneString(p.Motivation),
		Objective:     cloneString(p.Objective),
		AvailableTime: cloneString(p.AvailableTime),
	}
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
