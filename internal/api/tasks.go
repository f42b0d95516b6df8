package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"tasklist/pkg/task"
)

type createRequest struct {
	Task        *string `json:"task"`
	Title       *string `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.All(r.Context())
	if err != nil {
		s.logger.Error("list tasks", "err", err)
		s.writeError(w, 500, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSize(len(tasks))
	}
	records := s.layout.Records(tasks)
	if !s.layout.Detailed {
		writeJSON(w, 200, records)
		return
	}
	writeJSON(w, 200, map[string]any{
		"success": true,
		"tasks":   records,
		"count":   len(records),
	})
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if s.layout.Detailed && !isJSON(r) {
		s.writeError(w, 400, "Request must be in JSON format")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}

	d := task.Draft{Description: req.Description, Completed: req.Completed}
	if s.layout.Detailed {
		if req.Title != nil {
			d.Title = *req.Title
		}
	} else if req.Task != nil {
		d.Title = *req.Task
	}

	t, err := s.tasks.Create(r.Context(), d)
	if errors.Is(err, task.ErrTitleRequired) {
		if s.layout.Detailed {
			s.writeError(w, 400, "Task title is required and cannot be empty")
		} else {
			s.writeError(w, 400, "Task field is required and cannot be empty")
		}
		return
	}
	if err != nil {
		s.logger.Error("create task", "err", err)
		s.writeError(w, 500, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("create")
	}
	s.logger.Debug("task created", "id", t.ID)

	if !s.layout.Detailed {
		writeJSON(w, 201, s.layout.Record(*t))
		return
	}
	writeJSON(w, 201, map[string]any{
		"success": true,
		"task":    s.layout.Record(*t),
	})
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}

	t, err := s.tasks.Delete(r.Context(), id)
	if errors.Is(err, task.ErrNotFound) {
		if s.layout.Detailed {
			s.writeError(w, 404, fmt.Sprintf("Task with ID %d not found", id))
		} else {
			s.writeError(w, 404, "Task not found")
		}
		return
	}
	if err != nil {
		s.logger.Error("delete task", "id", id, "err", err)
		s.writeError(w, 500, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.RecordMutation("delete")
	}
	s.logger.Debug("task deleted", "id", t.ID)

	if !s.layout.Detailed {
		writeJSON(w, 200, map[string]any{
			"message":      "Task deleted successfully",
			"deleted_task": s.layout.Record(*t),
		})
		return
	}
	writeJSON(w, 200, map[string]any{
		"success":      true,
		"message":      "Task \"" + t.Title + "\" deleted successfully",
		"deleted_task": s.layout.Record(*t),
	})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
