// Package store provides persistence for lead sessions and captured leads.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/wah-sales/internal/domain"
)

var (
	// ErrInvalidConfig is returned when a driver is missing required settings.
	ErrInvalidConfig = errors.New("invalid store configuration")
	// ErrInvalidDriver is returned for an unknown driver name.
	ErrInvalidDriver = errors.New("invalid store driver")
)

// SessionStore persists dialogue state keyed by session id. Implementations
// copy sessions in and out so callers never share memory with the store.
type SessionStore interface {
	// Get returns the session for id, or nil and no error when absent.
	Get(ctx context.Context, id string) (*domain.LeadSession, error)

	// Put creates or fully replaces the session.
	Put(ctx context.Context, session *domain.LeadSession) error

	// Delete removes the session. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// CleanupExpired removes sessions not updated within ttl.
	CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error)

	// ListExpired returns the ids of sessions not updated within ttl.
	ListExpired(ctx context.Context, ttl time.Duration) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// LeadSink records captured leads for follow-up.
type LeadSink interface {
	SaveLead(ctx context.Context, lead *domain.Lead) error
}

// Repository is a session store that also records leads.
type Repository interface {
	SessionStore
	LeadSink
}
