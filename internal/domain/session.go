// Package domain contains the lead-qualification model and its pure rules.
package domain

import (
	"time"
)

// Phase is a state of the lead-qualification dialogue.
type Phase string

// Dialogue phases. Closed and Error are terminal and never stored.
const (
	PhaseAskWhoAge       Phase = "ask_who_age"
	PhaseAskWhoAgeAge    Phase = "ask_who_age_age"
	PhaseAskMotivation   Phase = "ask_motivation"
	PhaseAskAvailability Phase = "ask_availability"
	PhaseProposePlan     Phase = "propose_plan"
	PhaseScheduling      Phase = "scheduling"
	PhaseClosed          Phase = "closed"
	PhaseError           Phase = "error"
)

// Phases lists every known phase in dialogue order.
var Phases = []Phase{
	PhaseAskWhoAge,
	PhaseAskWhoAgeAge,
	PhaseAskMotivation,
	PhaseAskAvailability,
	PhaseProposePlan,
	PhaseScheduling,
	PhaseClosed,
	PhaseError,
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the dialogue ends in p.
func (p Phase) Terminal() bool {
	return p == PhaseClosed || p == PhaseError
}

// LeadSession holds the dialogue state for one prospective student.
type LeadSession struct {
	SessionID  string
	Phase      Phase
	Profile    Profile
	SalesPitch *string
	PlanKey    PlanKey
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLeadSession returns a session in the first phase of the dialogue.
func NewLeadSession(sessionID string, now time.Time) *LeadSession {
	return &LeadSession{
		SessionID: sessionID,
		Phase:     PhaseAskWhoAge,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the session.
func (s *LeadSession) Clone() *LeadSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Profile = s.Profile.Clone()
	if s.SalesPitch != nil {
		pitch := *s.SalesPitch
		c.SalesPitch = &pitch
	}
	return &c
}

// IdleFor returns how long the session has gone without an update.
func (s *LeadSession) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}
