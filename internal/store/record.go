package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ashureev/wah-sales/internal/domain"
)

// sessionRecord is the serialized form of a LeadSession. The phase is kept
// verbatim so an unknown stored value reaches the engine unchanged.
type sessionRecord struct {
	SessionID  string         `json:"session_id"`
	Phase      string         `json:"phase"`
	Profile    domain.Profile `json:"profile"`
	SalesPitch *string        `json:"sales_pitch,omitempty"`
	PlanKey    string         `json:"plan_key,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toRecord(s *domain.LeadSession) sessionRecord {
	return sessionRecord{
		SessionID:  s.SessionID,
		Phase:      string(s.Phase),
		Profile:    s.Profile,
		SalesPitch: s.SalesPitch,
		PlanKey:    string(s.PlanKey),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (r sessionRecord) session() *domain.LeadSession {
	return &domain.LeadSession{
		SessionID:  r.SessionID,
		Phase:      domain.Phase(r.Phase),
		Profile:    r.Profile,
		SalesPitch: r.SalesPitch,
		PlanKey:    domain.PlanKey(r.PlanKey),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func marshalSession(s *domain.LeadSession) ([]byte, error) {
	raw, err := json.Marshal(toRecord(s))
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", s.SessionID, err)
	}
	return raw, nil
}

func unmarshalSession(raw []byte) (*domain.LeadSession, error) {
	var r sessionRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return r.session(), nil
}
