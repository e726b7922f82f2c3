package domain

import "errors"

var (
	// ErrExtraction marks a failure of the structured extraction capability.
	// Phases recover from it by asking again.
	ErrExtraction = errors.New("extraction failed")
	// ErrInvalidProfile marks a completed profile that violates its invariants.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrInvalidPhone marks a phone number outside the accepted format.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrUnknownPlan marks a plan key that is not in the catalog.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrUnknownPhase marks a stored session whose phase is outside the closed set.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrUnknownIntent marks an intent label outside the closed set.
	ErrUnknownIntent = errors.New("unknown intent")
)
