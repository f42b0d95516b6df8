// Package instance turns configured task lists into ready-to-use stores.
package instance

import (
	"context"
	"fmt"

	"tasklist/internal/config"
	"tasklist/internal/db"
	"tasklist/pkg/task"
)

// Opened is a store with its backing connection.
type Opened struct {
	Config config.Instance
	Layout task.Layout
	Store  task.Store
	close  func()
}

// Close releases the backing connection, if any.
func (o *Opened) Close() {
	if o.close != nil {
		o.close()
	}
}

// Open connects the instance's backend and ensures its table exists.
func Open(ctx context.Context, in config.Instance) (*Opened, error) {
	layout := in.TaskLayout()
	o := &Opened{Config: in, Layout: layout}

	switch in.Backend {
	case config.BackendFile:
		o.Store = task.NewFileStore(in.Path, layout)

	case config.BackendPostgres:
		pool, err := db.Connect(ctx, in.DSN)
		if err != nil {
			return nil, fmt.Errorf("instance %s: connect: %w", in.Name, err)
		}
		s := task.NewPgStore(pool, in.Name, layout)
		if err := s.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("instance %s: ensure table: %w", in.Name, err)
		}
		o.Store = s
		o.close = pool.Close

	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(ctx, in.Path)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", in.Name, err)
		}
		s := task.NewSQLiteStore(sqlDB, in.Name, layout)
		if err := s.EnsureTable(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("instance %s: ensure table: %w", in.Name, err)
		}
		o.Store = s
		o.close = func() { sqlDB.Close() }

	default:
		return nil, fmt.Errorf("instance %s: unknown backend %q", in.Name, in.Backend)
	}
	return o, nil
}
