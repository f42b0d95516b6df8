package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"tasklist/internal/logging"
	"tasklist/internal/metrics"
	"tasklist/pkg/task"
)

// Options configures one served task list.
type Options struct {
	Name    string
	Layout  task.Layout
	Base    string           // collection path, e.g. "/tasks"
	Logger  *log.Logger      // nil discards request logs
	Metrics *metrics.Metrics // nil disables /metrics
}

// Server is the HTTP API for a single task list.
type Server struct {
	tasks   *task.Collection
	layout  task.Layout
	base    string
	logger  *log.Logger
	metrics *metrics.Metrics
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a Server.
func New(tasks *task.Collection, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		tasks:   tasks,
		layout:  opts.Layout,
		base:    opts.Base,
		logger:  logger.With("list", opts.Name),
		metrics: opts.Metrics,
		mux:     http.NewServeMux(),
	}
	s.routes()
	s.handler = logging.Middleware(s.logger, s.instrument(s.mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Tasks
	s.mux.HandleFunc("GET "+s.base, s.handleTaskList)
	s.mux.HandleFunc("POST "+s.base, s.handleTaskCreate)
	s.mux.HandleFunc("DELETE "+s.base+"/{id}", s.handleTaskDelete)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// The todo list ships its own page.
	if !s.layout.Detailed {
		s.mux.HandleFunc("GET /{$}", s.handleIndex)
	}
	s.mux.HandleFunc("/", s.handleNotFound)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// instrument records request metrics keyed by the matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.Pattern
		if route == "/" {
			route = ""
		}
		s.metrics.RecordRequest(r.Method, route, sw.status, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if s.layout.Detailed {
		s.writeError(w, 404, "Endpoint not found")
		return
	}
	s.writeError(w, 404, "Not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("write json", "err", err)
	}
}

// writeError writes {"error": msg}; the detailed layout adds "success": false.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	body := map[string]any{"error": msg}
	if s.layout.Detailed {
		body["success"] = false
	}
	writeJSON(w, status, body)
}
