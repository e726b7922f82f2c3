package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashureev/wah-sales/internal/domain"
	"github.com/ashureev/wah-sales/internal/shared"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writes to prevent SQLITE_BUSY
	retry   shared.RetryPolicy
}

var _ Repository = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy()}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS lead_sessions (
		session_id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		sales_pitch TEXT,
		plan_key TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_lead_sessions_updated ON lead_sessions(updated_at);

	CREATE TABLE IF NOT EXISTS leads (
		lead_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		profile_json TEXT NOT NULL,
		plan_key TEXT NOT NULL,
		sales_pitch TEXT,
		phone TEXT NOT NULL,
		preferred_day TEXT,
		preferred_time TEXT,
		captured_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leads_captured ON leads(captured_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Get retrieves a lead session by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.LeadSession, error) {
	query := `
		SELECT session_id, phase, profile_json, sales_pitch, plan_key, created_at, updated_at
		FROM lead_sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var session domain.LeadSession
	var phase, profileJSON string
	var salesPitch, planKey sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&session.SessionID, &phase, &profileJSON, &salesPitch, &planKey, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead session: %w", err)
	}

	if err := json.Unmarshal([]byte(profileJSON), &session.Profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", id, err)
	}
	session.Phase = domain.Phase(phase)
	session.PlanKey = domain.PlanKey(planKey.String)
	if salesPitch.Valid {
		pitch := salesPitch.String
		session.SalesPitch = &pitch
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	return &session, nil
}

// Put creates or replaces a lead session.
func (s *SQLiteStore) Put(ctx context.Context, session *domain.LeadSession) error {
	profileJSON, err := json.Marshal(session.Profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", session.SessionID, err)
	}

	query := `
		INSERT INTO lead_sessions (session_id, phase, profile_json, sales_pitch, plan_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			phase = excluded.phase,
			profile_json = excluded.profile_json,
			sales_pitch = excluded.sales_pitch,
			plan_key = excluded.plan_key,
			updated_at = excluded.updated_at`

	var salesPitch interface{}
	if session.SalesPitch != nil {
		salesPitch = *session.SalesPitch
	}
	var planKey interface{}
	if session.PlanKey != "" {
		planKey = string(session.PlanKey)
	}

	return s.write(ctx, "put lead session", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query,
			session.SessionID, string(session.Phase), string(profileJSON),
			salesPitch, planKey,
			session.CreatedAt.Unix(), session.UpdatedAt.Unix(),
		)
		return err
	})
}

// Delete removes a lead session, retrying on SQLITE_BUSY.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.write(ctx, "delete lead session", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM lead_sessions WHERE session_id = ?`, id)
		return err
	})
}

// CleanupExpired removes sessions not updated within ttl.
func (s *SQLiteStore) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	var deleted int64
	err := s.write(ctx, "cleanup expired sessions", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM lead_sessions WHERE updated_at < ?`, threshold)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

// ListExpired returns the ids of sessions not updated within ttl.
func (s *SQLiteStore) ListExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).Unix()

	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM lead_sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveLead records a captured lead.
func (s *SQLiteStore) SaveLead(ctx context.Context, lead *domain.Lead) error {
	profileJSON, err := json.Marshal(lead.Profile)
	if err != nil {
		return fmt.Errorf("encode lead profile: %w", err)
	}

	query := `
		INSERT INTO leads (lead_id, session_id, profile_json, plan_key, sales_pitch, phone, preferred_day, preferred_time, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var day, clock interface{}
	if lead.Scheduling.Day != nil {
		day = *lead.Scheduling.Day
	}
	if lead.Scheduling.Time != nil {
		clock = *lead.Scheduling.Time
	}

	return s.write(ctx, "save lead", func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query,
			lead.ID, lead.SessionID, string(profileJSON), string(lead.PlanKey), lead.SalesPitch,
			lead.Scheduling.Phone, day, clock, lead.CapturedAt.Unix(),
		)
		return err
	})
}

// ListLeads returns recorded leads, oldest first.
func (s *SQLiteStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	query := `
		SELECT lead_id, session_id, profile_json, plan_key, sales_pitch, phone, preferred_day, preferred_time, captured_at
		FROM leads ORDER BY captured_at, lead_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		var profileJSON, planKey string
		var salesPitch, day, clock sql.NullString
		var capturedAt int64

		if err := rows.Scan(
			&lead.ID, &lead.SessionID, &profileJSON, &planKey, &salesPitch,
			&lead.Scheduling.Phone, &day, &clock, &capturedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		if err := json.Unmarshal([]byte(profileJSON), &lead.Profile); err != nil {
			return nil, fmt.Errorf("decode lead profile %s: %w", lead.ID, err)
		}
		lead.PlanKey = domain.PlanKey(planKey)
		lead.SalesPitch = salesPitch.String
		if day.Valid {
			d := day.String
			lead.Scheduling.Day = &d
		}
		if clock.Valid {
			c := clock.String
			lead.Scheduling.Time = &c
		}
		lead.CapturedAt = time.Unix(capturedAt, 0)
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func (s *SQLiteStore) write(ctx context.Context, name string, op func(context.Context) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := shared.RetryOnConflict(ctx, s.retry, name, op); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
