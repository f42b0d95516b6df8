package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed Store. The whole list lives in a single
// JSONB document row keyed by list name.
type PgStore struct {
	pool   *pgxpool.Pool
	name   string
	layout Layout
}

// NewPgStore creates a PgStore for the list called name.
func NewPgStore(pool *pgxpool.Pool, name string, layout Layout) *PgStore {
	return &PgStore{pool: pool, name: name, layout: layout}
}

// EnsureTable creates the task_lists table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_lists (
			name       TEXT PRIMARY KEY,
			doc        JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	return err
}

// Load returns the stored list, inserting an empty one on first use.
func (s *PgStore) Load(ctx context.Context) ([]Task, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc::text FROM task_lists WHERE name = $1`, s.name).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := s.Save(ctx, nil); err != nil {
			return nil, err
		}
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load list %s: %w", s.name, err)
	}
	tasks, err := s.layout.Unmarshal(doc)
	if err != nil {
		return nil, fmt.Errorf("load list %s: %w", s.name, err)
	}
	return tasks, nil
}

// Save replaces the stored document.
func (s *PgStore) Save(ctx context.Context, tasks []Task) error {
	doc, err := s.layout.Marshal(tasks)
	if err != nil {
		return err
	}
	now := time.Now().Truncate(time.Microsecond)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO task_lists (name, doc, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		s.name, string(doc), now)
	if err != nil {
		return fmt.Errorf("save list %s: %w", s.name, err)
	}
	return nil
}
