// Package config loads the enrollment configuration file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "enrollment.yaml"

// DatabaseEnv names the environment variable holding the PostgreSQL
// connection string. It overrides database.connection_string.
const DatabaseEnv = "DATABASE_CONNECTION_STRING"

type Config struct {
	Sources  SourcesConfig  `yaml:"sources"`
	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Planning PlanningConfig `yaml:"planning"`
	Log      LogConfig      `yaml:"log"`
}

// SourcesConfig points at the catalog, program and policy files. They are
// ignored when Database.Enabled is set.
type SourcesConfig struct {
	Catalog  string `yaml:"catalog"`
	Programs string `yaml:"programs"`
	Policies string `yaml:"policies"`
	// WatchDebounce is how long to wait for file writes to settle before
	// reloading.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

type DatabaseConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ConnectionString string `yaml:"connection_string"`
}

type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type PlanningConfig struct {
	Eligibility   graph.EligibilityOptions `yaml:"eligibility"`
	PathLimit     int                      `yaml:"path_limit" validate:"gte=0"`
	CacheCapacity int                      `yaml:"cache_capacity" validate:"gte=0"`
	// Years is how far ahead a new plan may schedule courses.
	Years int `yaml:"years" validate:"gte=1,lte=10"`
	// Schools maps a school name to the abbreviation used in policy
	// program types, for example "Engineering" to "SoE".
	Schools map[string]string `yaml:"schools,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Catalog:       "testdata/catalog.json",
			Programs:      "testdata/programs.json",
			Policies:      "testdata/policies.yaml",
			WatchDebounce: 500 * time.Millisecond,
		},
		Store: StoreConfig{
			Path: ".enrollment/plans",
		},
		Planning: PlanningConfig{
			PathLimit:     graph.DefaultPathLimit,
			CacheCapacity: 256,
			Years:         4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New()

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.Database.Enabled && c.Sources.Catalog == "" {
		return errs.Configuration("sources.catalog is required unless the database is enabled")
	}
	if c.Database.Enabled && c.Database.ConnectionString == "" {
		return errs.Configuration("database.connection_string (or %s) is required when the database is enabled", DatabaseEnv)
	}
	if err := validate.Struct(c.Store); err != nil {
		return errs.Configuration("store: %v", err)
	}
	if err := validate.Struct(c.Planning); err != nil {
		return errs.Configuration("planning: %v", err)
	}
	if err := validate.Struct(c.Log); err != nil {
		return errs.Configuration("log: %v", err)
	}
	if c.Sources.WatchDebounce < 0 {
		return errs.Configuration("sources.watch_debounce must not be negative")
	}
	return nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge copies the non-zero values of other over c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Sources.Catalog != "" {
		c.Sources.Catalog = other.Sources.Catalog
	}
	if other.Sources.Programs != "" {
		c.Sources.Programs = other.Sources.Programs
	}
	if other.Sources.Policies != "" {
		c.Sources.Policies = other.Sources.Policies
	}
	if other.Sources.WatchDebounce != 0 {
		c.Sources.WatchDebounce = other.Sources.WatchDebounce
	}

	if other.Database.ConnectionString != "" {
		c.Database.ConnectionString = other.Database.ConnectionString
		c.Database.Enabled = true
	}
	if other.Database.Enabled {
		c.Database.Enabled = true
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}

	if other.Planning.Eligibility.BundleCorequisites {
		c.Planning.Eligibility.BundleCorequisites = true
	}
	if other.Planning.PathLimit != 0 {
		c.Planning.PathLimit = other.Planning.PathLimit
	}
	if other.Planning.CacheCapacity != 0 {
		c.Planning.CacheCapacity = other.Planning.CacheCapacity
	}
	if other.Planning.Years != 0 {
		c.Planning.Years = other.Planning.Years
	}
	if len(other.Planning.Schools) > 0 {
		if c.Planning.Schools == nil {
			c.Planning.Schools = make(map[string]string, len(other.Planning.Schools))
		}
		for school, abbreviation := range other.Planning.Schools {
			c.Planning.Schools[school] = abbreviation
		}
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}

// ApplyEnv applies environment overrides using lookup, normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if value, ok := lookup(DatabaseEnv); ok && value != "" {
		c.Database.ConnectionString = value
		c.Database.Enabled = true
	}
}

// Load builds the effective configuration: defaults, then the file at path
// (or DefaultFile when it exists), then the environment.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	config.ApplyEnv(os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Level returns the slog level named by Log.Level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds the process logger writing to stderr.
func (c *Config) Logger() *slog.Logger {
	options := &slog.HandlerOptions{Level: c.Level()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, options))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, options))
}
