package extraction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ashureev/wah-sales/internal/domain"
)

var (
	errNoRecipient = errors.New("could not tell who the classes are for")
	errNoPhone     = errors.New("no phone number found")
)

var (
	agePattern = regexp.MustCompile(`\b(\d{1,3})\b`)
	// \b is ASCII-only in RE2, so words that may end in an accented letter
	// are closed with an explicit non-letter.
	recipientPattern = regexp.MustCompile(`\bpara\s+((?:mis|mi|tus|tu|sus|su)\s+\p{L}+|m[ií]|ellas|ellos|ella|él|nosotros|usted)(?:$|[^\p{L}])`)
	possessive       = regexp.MustCompile(`\b((?:mis|mi|tus|tu|sus|su)\s+\p{L}+)`)
	firstPerson      = regexp.MustCompile(`\b(?:yo|me\s+gustar[ií]a|quiero\s+aprender)\b`)
	namedRecipient   = regexp.MustCompile(`(?i)\bpara\s+(\p{L}+)(?:$|[^\p{L}])`)
	infinitive       = regexp.MustCompile(`(?:ar|er|ir|ír)(?:me|te|se|nos|lo|la|le)?$`)
	hoursPattern     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:horas?|hrs?|h)\b`)
	clockPattern     = regexp.MustCompile(`\b(?:a\s+las\s+)?(\d{1,2}(?::\d{2})?\s*(?:am|pm|hrs|h)|\d{1,2}:\d{2})\b|\ba\s+las\s+(\d{1,2})\b`)

	weekdays = []string{"lunes", "martes", "miércoles", "miercoles", "jueves", "viernes", "sábado", "sabado", "domingo", "hoy"}

	advancedSignals = []string{"profesional", "carrera", "examen", "conservatorio", "dar clases", "dedicar mi vida", "escuela de música", "banda"}
	basicSignals    = []string{"hobby", "pasatiempo", "relajar", "explorar", "probar", "poco tiempo", "curiosidad"}

	affirmativeWords = []string{"sí", "si", "claro", "ok", "vale", "dale", "va", "perfecto", "encantaría", "gustaría", "quiero", "agendar", "agenda", "adelante", "seguro"}
	refusalWords     = []string{"no", "nunca", "jamás", "jamas"}
	deferralWords    = []string{"paso", "después", "despues", "luego"}

	// Words after "para" that never name a person.
	notANameWords = []string{"el", "la", "los", "las", "un", "una", "que", "qué", "clases", "clase", "guitarra", "música", "eso", "esto", "ya", "hoy", "mañana", "alguien", "empezar", "siempre"}
)

// RuleExtractor is an offline Extractor built on keyword and pattern rules.
// It backs local development and tests when no model is configured.
type RuleExtractor struct{}

var _ Extractor = RuleExtractor{}

// NewRuleExtractor returns a rule-based extractor.
func NewRuleExtractor() RuleExtractor {
	return RuleExtractor{}
}

// ExtractInitialProfile implements Extractor.
func (RuleExtractor) ExtractInitialProfile(ctx context.Context, text string) (domain.InitialProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.InitialProfile{}, err
	}
	normalized := domain.Lower(text)

	forWhom := recipient(text, normalized)
	if forWhom == "" {
		return domain.InitialProfile{}, failure(OpExtractInitialProfile, errNoRecipient)
	}

	age := domain.AgeNotFound
	if m := agePattern.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			age = n
		}
	}
	return domain.InitialProfile{ForWhom: forWhom, Age: age}, nil
}

// recipient resolves who the classes are for. Pronouns and possessives after
// "para" come first, then a name after "para", then first-person phrasing,
// then any possessive.
func recipient(text, normalized string) string {
	if m := recipientPattern.FindStringSubmatch(normalized); m != nil {
		if m[1] == "mí" || m[1] == "mi" {
			return "yo"
		}
		return m[1]
	}
	if m := namedRecipient.FindStringSubmatch(text); m != nil {
		word := domain.Lower(m[1])
		if !slices.Contains(notANameWords, word) && !infinitive.MatchString(word) {
			return m[1]
		}
	}
	if firstPerson.MatchString(normalized) {
		return "yo"
	}
	if m := possessive.FindStringSubmatch(normalized); m != nil {
		return m[1]
	}
	return ""
}

// RecommendPlan implements Extractor.
func (RuleExtractor) RecommendPlan(ctx context.Context, profile domain.CompleteProfile) (domain.PlanKey, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	goals := domain.Lower(profile.Motivation + " " + profile.Objective)
	switch {
	case containsSignal(goals, advancedSignals):
		return domain.PlanAdvanced, nil
	case containsSignal(goals, basicSignals):
		return domain.PlanBasic, nil
	}

	if m := hoursPattern.FindStringSubmatch(domain.Lower(profile.AvailableTime)); m != nil {
		hours, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil && hours >= 3 {
			return domain.PlanIntermediate, nil
		}
	}
	return domain.PlanBasic, nil
}

// GeneratePitch implements Extractor.
func (RuleExtractor) GeneratePitch(ctx context.Context, profile domain.CompleteProfile, plan domain.Plan) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Por lo que me cuentas (%s), el plan %s es ideal. ", strings.TrimSpace(profile.Motivation), plan.Name)
	fmt.Fprintf(&b, "%s Precio: $%d al mes.", plan.Description, plan.Price)
	if def, ok := domain.Definitions["laboratorio"]; ok {
		fmt.Fprintf(&b, "\n\n¿Qué es un laboratorio? %s", def)
	}
	b.WriteString("\n\nLa primera clase muestra es gratuita, ¡te esperamos!")
	return b.String(), nil
}

// ClassifyIntent implements Extractor.
func (RuleExtractor) ClassifyIntent(ctx context.Context, text string) (domain.Intent, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	words := strings.FieldsFunc(domain.Lower(text), func(r rune) bool {
		return !(r == 'á' || r == 'é' || r == 'í' || r == 'ó' || r == 'ú' || r == 'ñ' || ('a' <= r && r <= 'z'))
	})
	if len(words) == 0 {
		return domain.IntentNeutral, nil
	}
	// An explicit refusal anywhere outweighs politeness like "claro que no".
	for _, w := range words {
		if slices.Contains(refusalWords, w) {
			return domain.IntentNegative, nil
		}
	}
	if slices.Contains(deferralWords, words[0]) {
		return domain.IntentNegative, nil
	}
	for _, w := range words {
		if slices.Contains(affirmativeWords, w) {
			return domain.IntentAffirmative, nil
		}
	}
	for _, w := range words {
		if slices.Contains(deferralWords, w) {
			return domain.IntentNegative, nil
		}
	}
	return domain.IntentNeutral, nil
}

// ExtractScheduling implements Extractor.
func (RuleExtractor) ExtractScheduling(ctx context.Context, text string) (domain.SchedulingData, error) {
	if err := ctx.Err(); err != nil {
		return domain.SchedulingData{}, err
	}
	normalized := domain.Lower(text)

	phone := domain.FindPhone(text)
	if phone == "" {
		return domain.SchedulingData{}, failure(OpExtractScheduling, errNoPhone)
	}
	data := domain.SchedulingData{Phone: phone}
	if err := data.Validate(); err != nil {
		return domain.SchedulingData{}, failure(OpExtractScheduling, err)
	}

	for _, w := range strings.Fields(normalized) {
		w = strings.Trim(w, ".,;:!?¿¡")
		if slices.Contains(weekdays, w) {
			day := w
			data.Day = &day
			break
		}
	}

	rest := strings.Replace(normalized, domain.Lower(phone), " ", 1)
	if m := clockPattern.FindStringSubmatch(rest); m != nil {
		t := strings.TrimSpace(m[1])
		if t == "" {
			t = strings.TrimSpace(m[2])
		}
		if t != "" {
			data.Time = &t
		}
	}
	return data, nil
}

func containsSignal(text string, signals []string) bool {
	for _, s := range signals {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
