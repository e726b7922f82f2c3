package store

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver names accepted by New.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Option configures New.
type Option func(*options)

type options struct {
	dbPath      string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithDBPath sets the database file for the sqlite driver.
func WithDBPath(path string) Option {
	return func(o *options) {
		o.dbPath = path
	}
}

// WithRedisClient sets the client for the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

// WithRedisTTL sets the key TTL for the redis driver.
func WithRedisTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.redisTTL = ttl
	}
}

// New creates a Repository for the named driver.
func New(driver string, opts ...Option) (Repository, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil

	case DriverSQLite:
		if cfg.dbPath == "" {
			return nil, fmt.Errorf("%w: sqlite driver requires a database path", ErrInvalidConfig)
		}
		return NewSQLite(cfg.dbPath)

	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, fmt.Errorf("%w: redis driver requires a client", ErrInvalidConfig)
		}
		return NewRedis(cfg.redisClient, cfg.redisTTL), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}
}
