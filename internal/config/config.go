// Package config loads server and CLI configuration from defaults, an
// optional TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"tasklist/pkg/task"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config is the top-level configuration.
type Config struct {
	Log       Log        `toml:"log"`
	Metrics   bool       `toml:"metrics"`
	Instances []Instance `toml:"instance"`
}

// Log configures the process logger.
type Log struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json, logfmt
}

// Instance is one independently served task list.
type Instance struct {
	Name    string `toml:"name"`
	Layout  string `toml:"layout"`  // "todo" or "task"
	Addr    string `toml:"addr"`    // listen address, e.g. ":8000"
	Base    string `toml:"base"`    // collection path, e.g. "/tasks"
	Backend string `toml:"backend"` // file, postgres, sqlite
	Path    string `toml:"path"`    // JSON file or SQLite database
	DSN     string `toml:"dsn"`     // Postgres connection string

	// Lenient overrides the layout's handling of an undecodable store.
	Lenient *bool `toml:"lenient"`
}

// Default returns the two lists the server has always run: the "todo" list
// with its HTML page on :5000 and the "task" list on :8000.
func Default() *Config {
	return &Config{
		Log:     Log{Level: "info", Format: "text"},
		Metrics: true,
		Instances: []Instance{
			{Name: "todo", Layout: "todo", Addr: ":5000", Base: "/api/todos", Backend: BackendFile, Path: "todos.json"},
			{Name: "tasks", Layout: "task", Addr: ":8000", Base: "/tasks", Backend: BackendFile, Path: "tasks.json"},
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (or
// TASKLIST_CONFIG when path is empty), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TASKLIST_CONFIG")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	var fileCfg Config
	md, err := toml.DecodeFile(path, &fileCfg)
	if err != nil {
		return err
	}
	if md.IsDefined("log", "level") {
		cfg.Log.Level = fileCfg.Log.Level
	}
	if md.IsDefined("log", "format") {
		cfg.Log.Format = fileCfg.Log.Format
	}
	if md.IsDefined("metrics") {
		cfg.Metrics = fileCfg.Metrics
	}
	if md.IsDefined("instance") {
		cfg.Instances = fileCfg.Instances
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKLIST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TASKLIST_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TASKLIST_METRICS"); v != "" {
		cfg.Metrics = v == "1" || strings.EqualFold(v, "true")
	}
	if port := os.Getenv("PORT"); port != "" && len(cfg.Instances) > 0 {
		cfg.Instances[0].Addr = ":" + port
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		for i := range cfg.Instances {
			if cfg.Instances[i].Backend == BackendPostgres && cfg.Instances[i].DSN == "" {
				cfg.Instances[i].DSN = dsn
			}
		}
	}
}

func (c *Config) fillDefaults() {
	for i := range c.Instances {
		in := &c.Instances[i]
		if in.Layout == "" {
			in.Layout = task.TaskLayout.Name
		}
		if in.Name == "" {
			in.Name = in.Layout
		}
		if in.Backend == "" {
			in.Backend = BackendFile
		}
		if in.Base == "" {
			if in.Layout == task.TodoLayout.Name {
				in.Base = "/api/todos"
			} else {
				in.Base = "/tasks"
			}
		}
		if in.Path == "" && in.Backend == BackendFile {
			in.Path = in.Name + ".json"
		}
		if in.Path == "" && in.Backend == BackendSQLite {
			in.Path = "tasklist.db"
		}
	}
}

// reservedPaths are served by every instance alongside its collection.
var reservedPaths = map[string]bool{"/health": true, "/metrics": true}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if len(c.Instances) == 0 {
		return errors.New("no instances configured")
	}
	names := make(map[string]bool)
	addrs := make(map[string]bool)
	for _, in := range c.Instances {
		if names[in.Name] {
			return fmt.Errorf("duplicate instance name %q", in.Name)
		}
		names[in.Name] = true
		if in.Addr != "" {
			if addrs[in.Addr] {
				return fmt.Errorf("instance %s: address %s already in use", in.Name, in.Addr)
			}
			addrs[in.Addr] = true
		}
		if _, err := task.LayoutByName(in.Layout); err != nil {
			return fmt.Errorf("instance %s: %w", in.Name, err)
		}
		if !strings.HasPrefix(in.Base, "/") || in.Base == "/" || strings.HasSuffix(in.Base, "/") {
			return fmt.Errorf("instance %s: base %q must be a path like /tasks", in.Name, in.Base)
		}
		if reservedPaths[in.Base] {
			return fmt.Errorf("instance %s: base %q is reserved", in.Name, in.Base)
		}
		switch in.Backend {
		case BackendFile, BackendSQLite:
			if in.Path == "" {
				return fmt.Errorf("instance %s: path is required for %s backend", in.Name, in.Backend)
			}
		case BackendPostgres:
			if in.DSN == "" {
				return fmt.Errorf("instance %s: dsn or DATABASE_URL is required for postgres backend", in.Name)
			}
		default:
			return fmt.Errorf("instance %s: unknown backend %q", in.Name, in.Backend)
		}
	}
	return nil
}

// Instance returns the instance called name.
func (c *Config) Instance(name string) (*Instance, error) {
	for i := range c.Instances {
		if c.Instances[i].Name == name {
			return &c.Instances[i], nil
		}
	}
	return nil, fmt.Errorf("no instance named %q", name)
}

// TaskLayout resolves the instance's layout, applying the lenient override.
func (in Instance) TaskLayout() task.Layout {
	l, err := task.LayoutByName(in.Layout)
	if err != nil {
		l = task.TaskLayout
	}
	if in.Lenient != nil {
		l.Lenient = *in.Lenient
	}
	return l
}
