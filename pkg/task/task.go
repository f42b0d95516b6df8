package task

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTitleRequired is returned when a task is created with a blank title.
	ErrTitleRequired = errors.New("title is required")

	// ErrNotFound is returned when no task carries the requested ID.
	ErrNotFound = errors.New("task not found")

	// ErrCorrupt wraps a decode failure of a strict store document.
	ErrCorrupt = errors.New("corrupt task list")
)

// Task is one item in a task list.
type Task struct {
	ID          int
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}

// Draft holds the client-supplied fields of a task about to be created.
type Draft struct {
	Title       string
	Description string
	Completed   bool
}

// Store is the contract for task list persistence. Load and Save always
// operate on the whole list.
type Store interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, tasks []Task) error
}

// NextID returns max(existing IDs, 0) + 1.
func NextID(tasks []Task) int {
	highest := 0
	for _, t := range tasks {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}
