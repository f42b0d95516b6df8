package task

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Collection applies create/list/delete to a Store. Each operation loads
// the full list, mutates it and saves it back. Operations on one
// Collection are serialised; separate processes sharing a backend are not.
type Collection struct {
	store Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewCollection creates a Collection over store.
func NewCollection(store Store) *Collection {
	return &Collection{store: store, now: func() time.Time { return time.Now().Round(0) }}
}

// SetClock replaces the clock used for CreatedAt.
func (c *Collection) SetClock(now func() time.Time) {
	c.now = now
}

// All returns every task in insertion order.
func (c *Collection) All(ctx context.Context) ([]Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Load(ctx)
}

// Create appends a new task built from d. The list is loaded before the
// title is checked, so an unreadable store is reported ahead of ErrTitleRequired.
func (c *Collection) Create(ctx context.Context, d Draft) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	t := Task{
		ID:          NextID(tasks),
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Completed:   d.Completed,
		CreatedAt:   c.now(),
	}
	tasks = append(tasks, t)
	if err := c.store.Save(ctx, tasks); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

// Delete removes the first task with the given ID and returns it.
func (c *Collection) Delete(ctx context.Context, id int) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range tasks {
		if tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}

	removed := tasks[idx]
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	if err := c.store.Save(ctx, tasks); err != nil {
		return nil, fmt.Errorf("delete task %d: %w", id, err)
	}
	return &removed, nil
}
