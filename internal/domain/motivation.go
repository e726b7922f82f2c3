package domain

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	firstPersonMarkers = []string{"yo", "mi", "mí", "mismo"}
	pluralNouns        = []string{"hijas", "hijos", "nietos", "amigos", "ellos", "niños", "alumnos"}
)

// Lower folds s to lower case with Spanish rules. A Caser keeps state, so a
// fresh one is built per call.
func Lower(s string) string {
	return cases.Lower(language.Spanish).String(s)
}

// MotivationalQuestion phrases the motivation question for whoever the
// classes are for. First-person markers win over plural detection.
func MotivationalQuestion(forWhom string) string {
	text := strings.TrimSpace(Lower(forWhom))
	words := strings.Fields(text)

	if containsAny(words, firstPersonMarkers) {
		return "¿qué te inspira a aprender a tocar la guitarra y qué te gustaría lograr con ella?"
	}

	if containsAny(words, pluralNouns) || strings.HasSuffix(text, "s") {
		natural := strings.ReplaceAll(forWhom, "mi ", "tus ")
		return fmt.Sprintf("¿qué les inspira a %s a aprender a tocar la guitarra y qué les gustaría lograr con ella?", natural)
	}

	natural := strings.ReplaceAll(forWhom, "mi ", "tu ")
	return fmt.Sprintf("¿qué le inspira a %s a aprender a tocar la guitarra y qué le gustaría lograr con ella?", natural)
}

func containsAny(words, markers []string) bool {
	for _, w := range words {
		if slices.Contains(markers, w) {
			return true
		}
	}
	return false
}
