package task

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps a task list as one JSON array in a file. Every Save
// replaces the whole file.
type FileStore struct {
	path   string
	layout Layout
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string, layout Layout) *FileStore {
	return &FileStore{path: path, layout: layout}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the list, creating the file with an empty array when it does
// not exist yet.
func (s *FileStore) Load(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.Save(ctx, nil); err != nil {
			return nil, err
		}
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	tasks, err := s.layout.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return tasks, nil
}

// Save writes the list to a temporary file next to the target and renames
// it into place.
func (s *FileStore) Save(ctx context.Context, tasks []Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.layout.Marshal(tasks)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}
