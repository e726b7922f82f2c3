package extraction

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ashureev/wah-sales/internal/domain"
)

const (
	initialProfilePrompt = `Extrae 'para quien son las clases' y la 'edad' de la respuesta del usuario.
Responde solo con JSON: {"para_quien": string, "edad": entero o null}. Usa null si la edad no aparece.`

	recommendPlanPrompt = `Eres un asistente de ventas. Con base en la motivación, objetivos y disponibilidad de tiempo del alumno, recomienda el plan 'basico', 'intermedio' o 'avanzado'. Usa 'basico' si el compromiso es bajo o el interés es exploratorio. Usa 'avanzado' si hay metas profesionales o alto compromiso.
Responde solo con JSON: {"plan_recomendado": "basico" | "intermedio" | "avanzado"}.`

	salesPitchPrompt = `Actúa como un asesor de ventas cálido y profesional de una escuela de música. Conecta la historia del usuario con los beneficios del plan recomendado. Haz que se sienta comprendido, motivado y entusiasmado. Sé breve pero efectivo. Termina con una invitación clara y amigable para agendar una clase muestra gratuita.`

	classifyIntentPrompt = `Clasifica la respuesta del usuario. 'afirmativa' si quiere agendar, 'negativa' si no quiere, 'neutral' si es ambigua.
Responde solo con JSON: {"intencion": "afirmativa" | "negativa" | "neutral"}.`

	schedulingPrompt = `Extrae el número de teléfono, día y hora de la respuesta del usuario para agendar una sesión. El número de teléfono es un campo requerido. El día y la hora son opcionales.
Responde solo con JSON: {"numero_telefono": string, "dia_preferido": string o null, "hora_preferida": string o null}.`
)

func profileMessage(profile domain.CompleteProfile) (string, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	return "Perfil del usuario: " + string(raw), nil
}

func pitchMessage(profile domain.CompleteProfile, plan domain.Plan) (string, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Aquí tienes el perfil del usuario:\n%s\n\n", raw)
	fmt.Fprintf(&b, "El plan recomendado es: '%s'. Sus detalles son:\n%s. Precio: $%d.", plan.Name, plan.Description, plan.Price)
	if glossary := glossaryText(); glossary != "" {
		fmt.Fprintf(&b, "\n\nDefiniciones útiles:\n%s", glossary)
	}
	return b.String(), nil
}

func glossaryText() string {
	terms := make([]string, 0, len(domain.Definitions))
	for term := range domain.Definitions {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	lines := make([]string, 0, len(terms))
	for _, term := range terms {
		lines = append(lines, fmt.Sprintf("- %s: %s", term, domain.Definitions[term]))
	}
	return strings.Join(lines, "\n")
}
