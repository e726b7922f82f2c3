package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// phoneExpr is an optional country code, common separators and a 3-3-4
// digit grouping.
const phoneExpr = `\+?(?:\d{1,3})?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`

var (
	phonePattern = regexp.MustCompile(`^` + phoneExpr + `$`)
	// phoneInText requires a non-digit (or the text edge) on both sides so a
	// following number such as "10am" is not glued to the phone.
	phoneInText = regexp.MustCompile(`(?:^|[^\d+])(` + phoneExpr + `)(?:$|\D)`)
)

// FindPhone returns the first phone number in text, or "" when there is none.
func FindPhone(text string) string {
	m := phoneInText.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ValidatePhone checks phone against the accepted format.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return nil
}

// SchedulingData is the contact information for the trial class.
type SchedulingData struct {
	Phone string  `json:"phone"`
	Day   *string `json:"day,omitempty"`
	Time  *string `json:"time,omitempty"`
}

// Validate checks the required phone.
func (d SchedulingData) Validate() error {
	return ValidatePhone(d.Phone)
}

// Intent is the classified answer to the trial-class offer.
type Intent string

// Intent labels.
const (
	IntentAffirmative Intent = "afirmativa"
	IntentNegative    Intent = "negativa"
	IntentNeutral     Intent = "neutral"
)

// ParseIntent maps a label to an Intent. English labels are accepted too.
func ParseIntent(label string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "afirmativa", "affirmative":
		return IntentAffirmative, nil
	case "negativa", "negative":
		return IntentNegative, nil
	case "neutral":
		return IntentNeutral, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownIntent, label)
	}
}

// Lead is a captured prospect ready for follow-up.
type Lead struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Profile    CompleteProfile `json:"profile"`
	PlanKey    PlanKey         `json:"plan_key"`
	SalesPitch string          `json:"sales_pitch,omitempty"`
	Scheduling SchedulingData  `json:"scheduling"`
	CapturedAt time.Time       `json:"captured_at"`
}
