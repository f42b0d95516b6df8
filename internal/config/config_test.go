package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasklist.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TASKLIST_CONFIG", "")
	t.Setenv("PORT", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Instances) != 2 {
		t.Fatalf("expected 2 default instances, got %d", len(cfg.Instances))
	}
	todo, tasks := cfg.Instances[0], cfg.Instances[1]
	if todo.Addr != ":5000" || todo.Base != "/api/todos" || todo.Path != "todos.json" {
		t.Errorf("todo instance = %+v", todo)
	}
	if tasks.Addr != ":8000" || tasks.Base != "/tasks" || tasks.Path != "tasks.json" {
		t.Errorf("tasks instance = %+v", tasks)
	}
	if todo.TaskLayout().Lenient || !tasks.TaskLayout().Lenient {
		t.Error("todo should be strict and tasks lenient by default")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `
metrics = false

[log]
level = "debug"

[[instance]]
name = "work"
layout = "todo"
addr = ":9000"
backend = "sqlite"
lenient = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Metrics {
		t.Error("metrics should be disabled")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if len(cfg.Instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(cfg.Instances))
	}
	in := cfg.Instances[0]
	if in.Base != "/api/todos" || in.Path != "tasklist.db" {
		t.Errorf("defaults not filled: %+v", in)
	}
	if !in.TaskLayout().Lenient {
		t.Error("lenient override ignored")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `colour = "blue"`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TASKLIST_CONFIG", "")
	t.Setenv("PORT", "7000")
	t.Setenv("TASKLIST_LOG_FORMAT", "json")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Instances[0].Addr != ":7000" {
		t.Errorf("PORT not applied: %s", cfg.Instances[0].Addr)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %s", cfg.Log.Format)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"no instances", func(c *Config) { c.Instances = nil }, "no instances"},
		{"duplicate name", func(c *Config) { c.Instances[1].Name = "todo" }, "duplicate instance name"},
		{"duplicate addr", func(c *Config) { c.Instances[1].Addr = ":5000" }, "already in use"},
		{"bad layout", func(c *Config) { c.Instances[0].Layout = "kanban" }, "unknown layout"},
		{"bad base", func(c *Config) { c.Instances[0].Base = "tasks/" }, "must be a path"},
		{"health base", func(c *Config) { c.Instances[0].Base = "/health" }, "reserved"},
		{"metrics base", func(c *Config) { c.Instances[1].Base = "/metrics" }, "reserved"},
		{"bad backend", func(c *Config) { c.Instances[0].Backend = "redis" }, "unknown backend"},
		{"postgres without dsn", func(c *Config) { c.Instances[0].Backend = BackendPostgres }, "dsn"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mod(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestInstanceLookup(t *testing.T) {
	cfg := Default()
	if in, err := cfg.Instance("tasks"); err != nil || in.Addr != ":8000" {
		t.Errorf("Instance(tasks) = %+v, %v", in, err)
	}
	if _, err := cfg.Instance("missing"); err == nil {
		t.Error("expected error for unknown instance")
	}
}
