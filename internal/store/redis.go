package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashureev/wah-sales/internal/domain"
)

const (
	sessionKeyPrefix = "lead_session:"
	leadsKey         = "leads"
	defaultRedisTTL  = 24 * time.Hour
)

// RedisStore implements Repository using Redis. Session expiry is delegated
// to key TTLs, refreshed on every read and write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Repository = (*RedisStore)(nil)

// NewRedis creates a Redis-backed repository.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements SessionStore.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.LeadSession, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead session %s: %w", id, err)
	}

	session, err := unmarshalSession(val)
	if err != nil {
		return nil, err
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		slog.Warn("Failed to refresh session TTL", "session_id", id, "error", err)
	}
	return session, nil
}

// Put implements SessionStore.
func (s *RedisStore) Put(ctx context.Context, session *domain.LeadSession) error {
	val, err := marshalSession(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(session.SessionID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("put lead session %s: %w", session.SessionID, err)
	}
	return nil
}

// Delete implements SessionStore.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete lead session %s: %w", id, err)
	}
	return nil
}

// CleanupExpired implements SessionStore. Keys expire on their own, so
// there is nothing to sweep.
func (s *RedisStore) CleanupExpired(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

// ListExpired implements SessionStore. Expired keys are already gone.
func (s *RedisStore) ListExpired(context.Context, time.Duration) ([]string, error) {
	return nil, nil
}

// SaveLead implements LeadSink by appending the lead to a Redis list.
func (s *RedisStore) SaveLead(ctx context.Context, lead *domain.Lead) error {
	val, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	if err := s.client.RPush(ctx, leadsKey, val).Err(); err != nil {
		return fmt.Errorf("save lead %s: %w", lead.ID, err)
	}
	return nil
}

// Ping implements SessionStore.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements SessionStore.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return sessionKeyPrefix + id
}
