package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/wah-sales/internal/domain"
)

// MemoryStore implements Repository with in-process maps.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.LeadSession
	leads    []domain.Lead
}

var _ Repository = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.LeadSession),
	}
}

// Get implements SessionStore.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.LeadSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return session.Clone(), nil
}

// Put implements SessionStore.
func (s *MemoryStore) Put(ctx context.Context, session *domain.LeadSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = session.Clone()
	return nil
}

// Delete implements SessionStore.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// CleanupExpired implements SessionStore.
func (s *MemoryStore) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var removed int64
	for id, session := range s.sessions {
		if session.IdleFor(now) > ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// ListExpired implements SessionStore.
func (s *MemoryStore) ListExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var ids []string
	for id, session := range s.sessions {
		if session.IdleFor(now) > ttl {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SaveLead implements LeadSink.
func (s *MemoryStore) SaveLead(ctx context.Context, lead *domain.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leads = append(s.leads, *lead)
	return nil
}

// Leads returns a copy of the recorded leads in capture order.
func (s *MemoryStore) Leads() []domain.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Lead, len(s.leads))
	copy(out, s.leads)
	return out
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Ping implements SessionStore.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements SessionStore.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*domain.LeadSession)
	return nil
}
