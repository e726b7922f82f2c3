package domain

import "fmt"

// PlanKey identifies a plan tier in the catalog.
type PlanKey string

// Plan tiers.
const (
	PlanBasic        PlanKey = "basico"
	PlanIntermediate PlanKey = "intermedio"
	PlanAdvanced     PlanKey = "avanzado"
)

// shortcutAgeLimit is the age under which the entry tier is always offered.
const shortcutAgeLimit = 11

// Plan is a static catalog entry.
type Plan struct {
	Key         PlanKey `json:"key"`
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Description string  `json:"description"`
}

var catalog = map[PlanKey]Plan{
	PlanBasic: {
		Key:         PlanBasic,
		Name:        "Descubre",
		Price:       399,
		Description: "2 clases teóricas y 2 laboratorios, duración 30 a 40 min. Perfecto para los que tienen poco tiempo a la semana, pero aún así quieren aprender.",
	},
	PlanIntermediate: {
		Key:         PlanIntermediate,
		Name:        "Impulsa",
		Price:       699,
		Description: "4 clases teóricas y 2 laboratorios, duración 30 a 40 min. Para quienes quieren dedicar más tiempo a su aprendizaje, y la música es una parte más fundamental de su vida.",
	},
	PlanAdvanced: {
		Key:         PlanAdvanced,
		Name:        "Domina",
		Price:       999,
		Description: "4 clases teóricas y 4 laboratorios, duración 30 a 40 min. Para los que quieren dedicar su vida a la música, ya sea para ser profesionales, dar clases o preparar un examen de ingreso a la escuela.",
	},
}

// Definitions is the glossary entry of the catalog. It is not a plan and
// cannot be selected.
var Definitions = map[string]string{
	"laboratorio": "Es una sesión enfocada en la práctica y el desarrollo de un proyecto, como una canción, un riff o una composición propia. Es un espacio para aplicar la teoría de las clases de manera creativa.",
}

// Valid reports whether k names a selectable plan.
func (k PlanKey) Valid() bool {
	_, ok := catalog[k]
	return ok
}

// LookupPlan returns the catalog entry for key.
func LookupPlan(key PlanKey) (Plan, error) {
	plan, ok := catalog[key]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, key)
	}
	return plan, nil
}

// Plans returns the selectable plans from entry tier to top tier.
func Plans() []Plan {
	return []Plan{catalog[PlanBasic], catalog[PlanIntermediate], catalog[PlanAdvanced]}
}

// PlanShortcut returns the plan forced by age alone, if any.
func PlanShortcut(age int) (PlanKey, bool) {
	if age < shortcutAgeLimit {
		return PlanBasic, true
	}
	return "", false
}
