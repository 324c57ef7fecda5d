// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config holds all server settings
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	HTTP        HTTPConfig        `yaml:"http"`
	Puzzle      PuzzleConfig      `yaml:"puzzle"`
	Log         LogConfig         `yaml:"log"`
	Reconcile   ReconcileConfig   `yaml:"reconcile"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Auth        AuthConfig        `yaml:"auth"`
}

// StorageConfig selects and locates the storage backend
type StorageConfig struct {
	Type        string `yaml:"type"`
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// PuzzleConfig holds puzzle calendar settings
type PuzzleConfig struct {
	// Timezone is an IANA zone name deciding when a new daily puzzle starts
	Timezone string `yaml:"timezone"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|text
}

// ReconcileConfig holds sign-in reconciliation settings
type ReconcileConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// LeaderboardConfig holds leaderboard settings
type LeaderboardConfig struct {
	MaxPageSize int `yaml:"max_page_size"`
}

// AuthConfig holds session settings
type AuthConfig struct {
	SessionDuration time.Duration `yaml:"session_duration"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Type:       StorageMemory,
			SQLitePath: "data/scores.db",
		},
		HTTP:        HTTPConfig{Port: 8080},
		Puzzle:      PuzzleConfig{Timezone: "UTC"},
		Log:         LogConfig{Level: "info", Format: "json"},
		Reconcile:   ReconcileConfig{MaxRetries: 3, RetryDelay: time.Second},
		Leaderboard: LeaderboardConfig{MaxPageSize: 10000},
		Auth:        AuthConfig{SessionDuration: 24 * time.Hour},
	}
}

// Load reads the file named by CONFIG_FILE, if set, then applies
// environment overrides
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"), os.Getenv)
}

// LoadFrom reads path (if non-empty) over the defaults, then applies
// overrides from getenv
func LoadFrom(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = strings.ToLower(v)
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := getenv("PUZZLE_TIMEZONE"); v != "" {
		c.Puzzle.Timezone = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"HTTP_PORT", &c.HTTP.Port},
		{"RECONCILE_MAX_RETRIES", &c.Reconcile.MaxRetries},
		{"LEADERBOARD_MAX_PAGE_SIZE", &c.Leaderboard.MaxPageSize},
	}
	for _, e := range ints {
		if v := getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", e.name, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"RECONCILE_RETRY_DELAY", &c.Reconcile.RetryDelay},
		{"SESSION_DURATION", &c.Auth.SessionDuration},
	}
	for _, e := range durations {
		if v := getenv(e.name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", e.name, err)
			}
			*e.dst = d
		}
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL required when STORAGE_TYPE=postgres"))
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH required when STORAGE_TYPE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage type %q", c.Storage.Type))
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port %d", c.HTTP.Port))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}
	if c.Reconcile.MaxRetries < 0 {
		errs = append(errs, errors.New("reconcile max retries must not be negative"))
	}
	if c.Reconcile.RetryDelay < 0 {
		errs = append(errs, errors.New("reconcile retry delay must not be negative"))
	}
	if c.Leaderboard.MaxPageSize < 1 {
		errs = append(errs, errors.New("leaderboard max page size must be positive"))
	}
	if c.Auth.SessionDuration <= 0 {
		errs = append(errs, errors.New("session duration must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the puzzle time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Puzzle.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid puzzle timezone %q: %w", c.Puzzle.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds the process logger described by the log settings
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
