package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout describes how a task list looks on the wire and on disk.
type Layout struct {
	Name     string // "todo" or "task"
	Detailed bool   // title/description/completed instead of a bare "task" field
	Indent   int    // spaces of indentation in the stored document
	Lenient  bool   // decode failures of the stored document yield an empty list
}

// Known layouts.
var (
	TodoLayout = Layout{Name: "todo", Indent: 2}
	TaskLayout = Layout{Name: "task", Detailed: true, Indent: 4, Lenient: true}
)

// LayoutByName returns the layout registered under name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case TodoLayout.Name:
		return TodoLayout, nil
	case TaskLayout.Name:
		return TaskLayout, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q", name)
}

// TitleField is the JSON key carrying a task's title.
func (l Layout) TitleField() string {
	if l.Detailed {
		return "title"
	}
	return "task"
}

type todoRecord struct {
	ID        int       `json:"id"`
	Task      string    `json:"task"`
	CreatedAt timestamp `json:"created_at"`
}

type taskRecord struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   timestamp `json:"created_at"`
}

// Record returns the JSON-encodable form of t in this layout.
func (l Layout) Record(t Task) any {
	if l.Detailed {
		return taskRecord{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   timestamp(t.CreatedAt),
		}
	}
	return todoRecord{ID: t.ID, Task: t.Title, CreatedAt: timestamp(t.CreatedAt)}
}

// Records converts a list for encoding. The result is never nil so an empty
// list encodes as [].
func (l Layout) Records(tasks []Task) []any {
	out := make([]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, l.Record(t))
	}
	return out
}

// Marshal encodes tasks as an indented JSON array.
func (l Layout) Marshal(tasks []Task) ([]byte, error) {
	data, err := json.MarshalIndent(l.Records(tasks), "", strings.Repeat(" ", l.Indent))
	if err != nil {
		return nil, fmt.Errorf("marshal %s list: %w", l.Name, err)
	}
	return data, nil
}

// Unmarshal decodes a stored JSON array. Empty input is an empty list.
// A lenient layout reads a document that is not JSON at all as an empty
// list. Any other decode failure, and every failure of a strict layout,
// returns an error wrapping ErrCorrupt.
func (l Layout) Unmarshal(data []byte) ([]Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Task{}, nil
	}
	if l.Lenient && !json.Valid(data) {
		return []Task{}, nil
	}
	tasks, err := l.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return tasks, nil
}

func (l Layout) decode(data []byte) ([]Task, error) {
	if l.Detailed {
		var recs []taskRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		tasks := make([]Task, 0, len(recs))
		for _, r := range recs {
			tasks = append(tasks, Task{
				ID:          r.ID,
				Title:       r.Title,
				Description: r.Description,
				Completed:   r.Completed,
				CreatedAt:   time.Time(r.CreatedAt),
			})
		}
		return tasks, nil
	}
	var recs []todoRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(recs))
	for _, r := range recs {
		tasks = append(tasks, Task{ID: r.ID, Title: r.Task, CreatedAt: time.Time(r.CreatedAt)})
	}
	return tasks, nil
}

// timestamp reads RFC 3339 as well as the zone-less ISO-8601 form older
// list files were written with.
type timestamp time.Time

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (ts timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(ts).Format(time.RFC3339Nano))
}

func (ts *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if s == "" {
		*ts = timestamp{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*ts = timestamp(t)
		return nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			*ts = timestamp(t)
			return nil
		}
	}
	return fmt.Errorf("created_at: unrecognised time %q", s)
}
