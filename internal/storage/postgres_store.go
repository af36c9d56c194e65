package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps results in a single table with the snapshot body as
// JSONB, fronted by a small read cache.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, Snapshot]
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Snapshot](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db, cache: cache}, nil
}

func (s *PostgresStore) ensureSchema() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS interview_results (
  session_id TEXT PRIMARY KEY,
  diagnosis TEXT NOT NULL,
  completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
  payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interview_results_completed_at ON interview_results (completed_at DESC);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(snap.SessionID)
	if id == "" {
		return fmt.Errorf("session_id is required")
	}
	if err := s.ensureSchema(); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO interview_results (session_id, diagnosis, completed_at, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id)
DO UPDATE SET diagnosis=EXCLUDED.diagnosis,
  completed_at=EXCLUDED.completed_at,
  payload=EXCLUDED.payload`,
		id, string(snap.Diagnosis), snap.CompletedAt.UTC(), payload)
	if err != nil {
		return err
	}
	s.cache.Add(id, snap)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return Snapshot{}, fmt.Errorf("session_id is required")
	}
	if snap, ok := s.cache.Get(id); ok {
		return snap, nil
	}
	if err := s.ensureSchema(); err != nil {
		return Snapshot{}, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM interview_results WHERE session_id = $1`, id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode result: %w", err)
	}
	s.cache.Add(id, snap)
	return snap, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Snapshot, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM interview_results ORDER BY completed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Snapshot, 0, 32)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
