// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port           string   `env:"PORT"            envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string   `env:"LOG_LEVEL"       envDefault:"info"`

	Store      StoreConfig
	Extraction ExtractionConfig
	RateLimit  RateLimitConfig
	Transcript TranscriptConfig

	MaxRequestBodyBytes int64         `env:"MAX_REQUEST_BODY_BYTES" envDefault:"1048576"`
	HealthCheckTimeout  time.Duration `env:"HEALTH_CHECK_TIMEOUT"   envDefault:"5s"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT"       envDefault:"10s"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver          string        `env:"STORE_DRIVER"     envDefault:"sqlite"`
	DBPath          string        `env:"DB_PATH"          envDefault:"./data/wah-sales.db"`
	RedisAddr       string        `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB"         envDefault:"0"`
	SessionTTL      time.Duration `env:"SESSION_TTL"      envDefault:"24h"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"5m"`
}

// ExtractionConfig selects and configures the extraction backend.
type ExtractionConfig struct {
	Backend       string        `env:"EXTRACTOR"          envDefault:"rules"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIModel   string        `env:"OPENAI_MODEL"       envDefault:"gpt-4o"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	GrpcAddr      string        `env:"EXTRACTOR_ADDR"     envDefault:"localhost:50051"`
	Timeout       time.Duration `env:"EXTRACTION_TIMEOUT" envDefault:"20s"`
}

// RateLimitConfig bounds requests per client.
type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW"   envDefault:"1m"`
}

// TranscriptConfig controls NDJSON conversation transcripts.
type TranscriptConfig struct {
	Enabled       bool   `env:"TRANSCRIPT_LOG_ENABLED"        envDefault:"false"`
	Dir           string `env:"TRANSCRIPT_LOG_DIR"            envDefault:"./data/logs/transcripts"`
	GlobalEnabled bool   `env:"TRANSCRIPT_LOG_GLOBAL_ENABLED" envDefault:"false"`
	GlobalPath    string `env:"TRANSCRIPT_LOG_GLOBAL_PATH"    envDefault:"./data/logs/transcripts/all.ndjson"`
	QueueSize     int    `env:"TRANSCRIPT_LOG_QUEUE_SIZE"     envDefault:"1000"`
}

var (
	storeDrivers       = []string{"memory", "sqlite", "redis"}
	extractionBackends = []string{"rules", "openai", "grpc"}
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	var problems []error

	if c.Port == "" {
		problems = append(problems, errors.New("PORT cannot be empty"))
	}
	if c.MaxRequestBodyBytes <= 0 {
		problems = append(problems, errors.New("MAX_REQUEST_BODY_BYTES must be > 0"))
	}

	if !slices.Contains(storeDrivers, c.Store.Driver) {
		problems = append(problems, fmt.Errorf("STORE_DRIVER must be one of %s", strings.Join(storeDrivers, ", ")))
	}
	if c.Store.Driver == "sqlite" && c.Store.DBPath == "" {
		problems = append(problems, errors.New("DB_PATH cannot be empty"))
	}
	if c.Store.Driver == "redis" && c.Store.RedisAddr == "" {
		problems = append(problems, errors.New("REDIS_ADDR cannot be empty"))
	}
	if c.Store.SessionTTL <= 0 {
		problems = append(problems, errors.New("SESSION_TTL must be > 0"))
	}

	if !slices.Contains(extractionBackends, c.Extraction.Backend) {
		problems = append(problems, fmt.Errorf("EXTRACTOR must be one of %s", strings.Join(extractionBackends, ", ")))
	}
	if c.Extraction.Backend == "openai" && c.Extraction.OpenAIAPIKey == "" {
		problems = append(problems, errors.New("OPENAI_API_KEY is required when EXTRACTOR=openai"))
	}
	if c.Extraction.Backend == "grpc" && c.Extraction.GrpcAddr == "" {
		problems = append(problems, errors.New("EXTRACTOR_ADDR is required when EXTRACTOR=grpc"))
	}
	if c.Extraction.Timeout <= 0 {
		problems = append(problems, errors.New("EXTRACTION_TIMEOUT must be > 0"))
	}

	if c.RateLimit.Requests <= 0 {
		problems = append(problems, errors.New("RATE_LIMIT_REQUESTS must be > 0"))
	}
	if c.RateLimit.Window <= 0 {
		problems = append(problems, errors.New("RATE_LIMIT_WINDOW must be > 0"))
	}

	if c.Transcript.Enabled {
		if c.Transcript.Dir == "" {
			problems = append(problems, errors.New("TRANSCRIPT_LOG_DIR cannot be empty"))
		}
		if c.Transcript.GlobalEnabled && c.Transcript.GlobalPath == "" {
			problems = append(problems, errors.New("TRANSCRIPT_LOG_GLOBAL_PATH cannot be empty"))
		}
		if c.Transcript.QueueSize <= 0 {
			problems = append(problems, errors.New("TRANSCRIPT_LOG_QUEUE_SIZE must be > 0"))
		}
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a valid level", level)
	}
	return l, nil
}

// IsDevelopment returns true when any localhost origin is allowed.
func (c *Config) IsDevelopment() bool {
	for _, o := range c.AllowedOrigins {
		if strings.Contains(o, "localhost") || strings.Contains(o, "127.0.0.1") {
			return true
		}
	}
	return false
}
