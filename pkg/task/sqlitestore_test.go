package task

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	s := NewSQLiteStore(db, "tasks", TaskLayout)
	if err := s.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure table: %v", err)
	}

	tasks, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty list, got %d", len(tasks))
	}

	want := []Task{
		{ID: 1, Title: "Buy groceries", Description: "Milk", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 2, Title: "Walk the dog", Completed: true, CreatedAt: time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC)},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sameTasks(t, got, want)
}

func TestSQLiteStoreListsAreIndependent(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	todos := NewSQLiteStore(db, "todo", TodoLayout)
	tasks := NewSQLiteStore(db, "tasks", TaskLayout)
	if err := todos.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}

	if err := todos.Save(ctx, []Task{{ID: 1, Title: "only here", CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}
	got, err := tasks.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected other list to stay empty, got %d", len(got))
	}
}

func TestSQLiteStoreStrictCorruption(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	s := NewSQLiteStore(db, "todo", TodoLayout)
	if err := s.EnsureTable(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO task_lists (name, doc) VALUES ('todo', '{broken')`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}
