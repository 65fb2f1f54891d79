// Package config loads the optional reshalka configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tulen-chik/reshalka/internal/puzzle"
)

// DefaultListen is the address `reshalka serve` binds when none is given.
const DefaultListen = "127.0.0.1:8080"

// Config holds runtime settings. Command-line flags override it.
type Config struct {
	// CompletionDelay is the pause between a correct answer and advancing.
	// Zero means puzzle.DefaultDelay.
	CompletionDelay time.Duration `yaml:"completion_delay"`

	// Catalog is a catalog file. Empty means the builtin catalog.
	Catalog string `yaml:"catalog"`

	// Journal is a SQLite database path. Empty disables journalling.
	Journal string `yaml:"journal"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Listen is the HTTP address for the serve command.
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML config file, applies defaults and validates.
// An empty path returns Default(). Relative catalog and journal paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	base := filepath.Dir(path)
	cfg.Catalog = resolve(base, cfg.Catalog)
	cfg.Journal = resolve(base, cfg.Journal)

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolve(base, p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func (c *Config) applyDefaults() {
	if c.CompletionDelay == 0 {
		c.CompletionDelay = puzzle.DefaultDelay
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.CompletionDelay < 0 {
		problems = append(problems, "completion_delay must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level %q is not one of debug, info, warn, error", s)
	}
}
