package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNextID(t *testing.T) {
	cases := []struct {
		name  string
		tasks []Task
		want  int
	}{
		{"empty", nil, 1},
		{"single", []Task{{ID: 1}}, 2},
		{"gap", []Task{{ID: 1}, {ID: 7}, {ID: 3}}, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextID(tc.tasks); got != tc.want {
				t.Errorf("NextID = %d, want %d", got, tc.want)
			}
		})
	}
}

func sameTasks(t *testing.T, got, want []Task) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Title != w.Title || g.Description != w.Description || g.Completed != w.Completed {
			t.Errorf("task %d = %+v, want %+v", i, g, w)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("task %d created_at = %v, want %v", i, g.CreatedAt, w.CreatedAt)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)
	tasks := []Task{
		{ID: 3, Title: "Buy groceries", Description: "Milk", CreatedAt: ts},
		{ID: 1, Title: "Walk the dog", Completed: true, CreatedAt: ts.Add(time.Minute)},
	}

	for _, layout := range []Layout{TodoLayout, TaskLayout} {
		t.Run(layout.Name, func(t *testing.T) {
			ctx := context.Background()
			s := NewFileStore(filepath.Join(t.TempDir(), "list.json"), layout)
			if err := s.Save(ctx, tasks); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			want := tasks
			if !layout.Detailed {
				// the todo layout carries only id, task and created_at
				want = []Task{
					{ID: 3, Title: "Buy groceries", CreatedAt: ts},
					{ID: 1, Title: "Walk the dog", CreatedAt: ts.Add(time.Minute)},
				}
			}
			sameTasks(t, got, want)
		})
	}
}

func TestFileStoreCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	s := NewFileStore(path, TodoLayout)

	tasks, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty list, got %d", len(tasks))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("new file = %q, want []", data)
	}
}

func TestFileStoreIndentation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tasks := []Task{{ID: 1, Title: "x", CreatedAt: time.Now()}}

	todo := NewFileStore(filepath.Join(dir, "todos.json"), TodoLayout)
	if err := todo.Save(ctx, tasks); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(todo.Path())
	if !strings.Contains(string(data), "\n  {") || strings.Contains(string(data), "\n    {") {
		t.Errorf("todo layout should indent by 2:\n%s", data)
	}

	detailed := NewFileStore(filepath.Join(dir, "tasks.json"), TaskLayout)
	if err := detailed.Save(ctx, tasks); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(detailed.Path())
	if !strings.Contains(string(data), "\n    {") {
		t.Errorf("task layout should indent by 4:\n%s", data)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	strictPath := filepath.Join(dir, "todos.json")
	os.WriteFile(strictPath, []byte(`[{"id": 1, "task": "tru`), 0644)
	_, err := NewFileStore(strictPath, TodoLayout).Load(ctx)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("strict layout: expected ErrCorrupt, got %v", err)
	}

	lenientPath := filepath.Join(dir, "tasks.json")
	os.WriteFile(lenientPath, []byte(`not json`), 0644)
	tasks, err := NewFileStore(lenientPath, TaskLayout).Load(ctx)
	if err != nil {
		t.Fatalf("lenient layout: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("lenient layout: expected empty list, got %d", len(tasks))
	}
}

func TestLenientLayoutKeepsValidJSON(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		doc  string
	}{
		{"completed not bool", `[{"id": 1, "title": "keep1", "completed": "yes", "created_at": "2025-06-01T10:20:30"},
			{"id": 2, "title": "keep2", "completed": false, "created_at": "2025-06-01T10:20:31"}]`},
		{"unknown timestamp", `[{"id": 1, "title": "keep1", "created_at": "yesterday"}]`},
		{"not an array", `{"id": 1, "title": "keep1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks.json")
			os.WriteFile(path, []byte(tc.doc), 0644)
			store := NewFileStore(path, TaskLayout)

			_, err := store.Load(ctx)
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}

			c := NewCollection(store)
			if _, err := c.Create(ctx, Draft{Title: "new"}); !errors.Is(err, ErrCorrupt) {
				t.Errorf("create: expected ErrCorrupt, got %v", err)
			}
			data, _ := os.ReadFile(path)
			if string(data) != tc.doc {
				t.Errorf("document was rewritten:\n%s", data)
			}
		})
	}
}

func TestLayoutReadsNaiveTimestamps(t *testing.T) {
	doc := `[{"id": 1, "task": "legacy", "created_at": "2025-06-01T10:20:30.123456"}]`
	tasks, err := TodoLayout.Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2025, 6, 1, 10, 20, 30, 123456000, time.Local)
	if !tasks[0].CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", tasks[0].CreatedAt, want)
	}
}

func TestLayoutByName(t *testing.T) {
	if l, err := LayoutByName("task"); err != nil || !l.Detailed {
		t.Errorf("LayoutByName(task) = %+v, %v", l, err)
	}
	if _, err := LayoutByName("nope"); err == nil {
		t.Error("expected error for unknown layout")
	}
}
