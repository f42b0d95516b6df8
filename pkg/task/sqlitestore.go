package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps the list as one JSON text document per name in a
// SQLite database. The caller opens db with the sqlite3 driver registered.
type SQLiteStore struct {
	db     *sql.DB
	name   string
	layout Layout
}

// NewSQLiteStore creates a SQLiteStore for the list called name.
func NewSQLiteStore(db *sql.DB, name string, layout Layout) *SQLiteStore {
	return &SQLiteStore{db: db, name: name, layout: layout}
}

// EnsureTable creates the task_lists table if it doesn't exist.
func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS task_lists (
			name       TEXT PRIMARY KEY,
			doc        TEXT NOT NULL DEFAULT '[]',
			updated_at TEXT NOT NULL DEFAULT ''
		)`)
	return err
}

// Load returns the stored list, inserting an empty one on first use.
func (s *SQLiteStore) Load(ctx context.Context) ([]Task, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM task_lists WHERE name = ?`, s.name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		if err := s.Save(ctx, nil); err != nil {
			return nil, err
		}
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load list %s: %w", s.name, err)
	}
	tasks, err := s.layout.Unmarshal([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("load list %s: %w", s.name, err)
	}
	return tasks, nil
}

// Save replaces the stored document.
func (s *SQLiteStore) Save(ctx context.Context, tasks []Task) error {
	doc, err := s.layout.Marshal(tasks)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_lists (name, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		s.name, string(doc), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save list %s: %w", s.name, err)
	}
	return nil
}
