package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/ashureev/wah-sales/internal/domain"
)

var firstInteger = regexp.MustCompile(`\d+`)

// recoverable reports whether err is an extraction failure the current
// phase answers by asking again. Anything else aborts the turn.
func recoverable(err error) bool {
	return errors.Is(err, domain.ErrExtraction)
}

// stay keeps the session as stored and re-prompts.
func stay(session *domain.LeadSession, text string) step {
	return step{text: text, phase: session.Phase, effect: effectNone}
}

func profileData(p domain.Profile) map[string]any {
	return map[string]any{dataProfile: p.Clone()}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func (e *Engine) handleAskWhoAge(ctx context.Context, session *domain.LeadSession, message string) (step, error) {
	initial, err := e.extractor.ExtractInitialProfile(ctx, message)
	if err != nil {
		if !recoverable(err) {
			return step{}, err
		}
		e.logger.Warn("Initial profile extraction failed", "session_id", session.SessionID, "error", err)
		return stay(session, msgClarifyWhoAge), nil
	}

	forWhom := initial.ForWhom
	session.Profile.ForWhom = &forWhom

	if !initial.HasAge() {
		return step{
			text:   fmt.Sprintf(msgAskAge, forWhom),
			phase:  domain.PhaseAskWhoAgeAge,
			data:   profileData(session.Profile),
			effect: effectSave,
		}, nil
	}

	age := initial.Age
	session.Profile.Age = &age
	return step{
		text:   fmt.Sprintf(msgMotivationAfterWho, domain.MotivationalQuestion(forWhom)),
		phase:  domain.PhaseAskMotivation,
		data:   profileData(session.Profile),
		effect: effectSave,
	}, nil
}

func (e *Engine) handleAskWhoAgeAge(_ context.Context, session *domain.LeadSession, message string) (step, error) {
	age, err := strconv.Atoi(firstInteger.FindString(message))
	if err != nil {
		return step{
			text:   msgAgeNotANumber,
			phase:  session.Phase,
			data:   profileData(session.Profile),
			effect: effectNone,
		}, nil
	}

	session.Profile.Age = &age
	return step{
		text:   fmt.Sprintf(msgMotivationAfterAge, domain.MotivationalQuestion(deref(session.Profile.ForWhom))),
		phase:  domain.PhaseAskMotivation,
		data:   profileData(session.Profile),
		effect: effectSave,
	}, nil
}

func (e *Engine) handleAskMotivation(_ context.Context, session *domain.LeadSession, message string) (step, error) {
	motivation, objective := message, message
	session.Profile.Motivation = &motivation
	session.Profile.Objective = &objective

	return step{
		text:   msgAskAvailability,
		phase:  domain.PhaseAskAvailability,
		data:   profileData(session.Profile),
		effect: effectSave,
	}, nil
}

func (e *Engine) handleAskAvailability(ctx context.Context, session *domain.LeadSession, message string) (step, error) {
	available := message
	session.Profile.AvailableTime = &available

	profile, err := session.Profile.Complete()
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidProfile) {
			return step{}, err
		}
		e.logger.Warn("Profile failed validation, ending session", "session_id", session.SessionID, "error", err)
		return step{text: msgProfileInvalid, phase: domain.PhaseError, effect: effectDelete}, nil
	}

	planKey, shortcut := domain.PlanShortcut(profile.Age)
	if !shortcut {
		planKey, err = e.extractor.RecommendPlan(ctx, profile)
		if err != nil {
			if !recoverable(err) {
				return step{}, err
			}
			e.logger.Warn("Plan recommendation failed", "session_id", session.SessionID, "error", err)
			return stay(session, msgProposalUnavailable), nil
		}
	}

	plan, err := domain.LookupPlan(planKey)
	if err != nil {
		e.logger.Warn("Recommended plan is not in the catalog", "session_id", session.SessionID, "error", err)
		return stay(session, msgProposalUnavailable), nil
	}

	pitch, err := e.extractor.GeneratePitch(ctx, profile, plan)
	if err != nil {
		if !recoverable(err) {
			return step{}, err
		}
		e.logger.Warn("Sales pitch generation failed", "session_id", session.SessionID, "error", err)
		return stay(session, msgProposalUnavailable), nil
	}

	session.SalesPitch = &pitch
	session.PlanKey = plan.Key
	return step{
		text:  fmt.Sprintf(msgProposal, pitch),
		phase: domain.PhaseProposePlan,
		data: map[string]any{
			dataProfile:         profile,
			dataRecommendedPlan: plan,
		},
		effect: effectSave,
	}, nil
}

func (e *Engine) handleProposePlan(ctx context.Context, session *domain.LeadSession, message string) (step, error) {
	intent, err := e.extractor.ClassifyIntent(ctx, message)
	if err != nil {
		if !recoverable(err) {
			return step{}, err
		}
		e.logger.Warn("Intent classification failed", "session_id", session.SessionID, "error", err)
		return stay(session, msgAskYesNo), nil
	}

	if intent != domain.IntentAffirmative {
		return step{text: msgDeclined, phase: domain.PhaseClosed, effect: effectDelete}, nil
	}
	return step{text: msgAskScheduling, phase: domain.PhaseScheduling, effect: effectSave}, nil
}

func (e *Engine) handleScheduling(ctx context.Context, session *domain.LeadSession, message string) (step, error) {
	scheduling, err := e.extractor.ExtractScheduling(ctx, message)
	if err == nil {
		err = scheduling.Validate()
	}
	if err != nil {
		if !recoverable(err) && !errors.Is(err, domain.ErrInvalidPhone) {
			return step{}, err
		}
		e.logger.Warn("Scheduling extraction failed", "session_id", session.SessionID, "error", err)
		return stay(session, msgSchedulingRetry), nil
	}

	data := map[string]any{dataScheduling: scheduling}
	st := step{text: msgScheduled, phase: domain.PhaseClosed, data: data, effect: effectDelete}

	profile, err := session.Profile.Complete()
	if err != nil {
		e.logger.Warn("Scheduled session has an incomplete profile, lead not recorded",
			"session_id", session.SessionID, "error", err)
		data[dataProfile] = session.Profile.Clone()
		return st, nil
	}

	data[dataProfile] = profile
	st.lead = &domain.Lead{
		ID:         e.newID(),
		SessionID:  session.SessionID,
		Profile:    profile,
		PlanKey:    session.PlanKey,
		SalesPitch: deref(session.SalesPitch),
		Scheduling: scheduling,
		CapturedAt: e.now(),
	}
	return st, nil
}
