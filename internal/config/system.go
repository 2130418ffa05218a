// Package config loads and validates permgate's system configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/permgate-dev/permgate/internal/domain/values"
)

// Config is the system configuration file (~/.permgate/system.yaml).
type Config struct {
	// CatalogDir holds the capability catalog documents.
	CatalogDir string `yaml:"catalog_dir"`
	// ManifestDir holds one application manifest per file.
	ManifestDir string `yaml:"manifest_dir"`
	// StatePath is the durable grant state file.
	StatePath string `yaml:"state_path"`
	// GatesPath is the durable gate mode file.
	GatesPath string `yaml:"gates_path"`
	// UsageDB is the SQLite access history database. Empty keeps usage
	// history in memory.
	UsageDB string `yaml:"usage_db,omitempty"`
	// Locale selects the collation rules for group ordering.
	Locale string `yaml:"locale,omitempty"`
	// User is the acting user when no --user flag is given.
	User string `yaml:"user,omitempty"`
	// Batch selects immediate or deferred commit behavior.
	Batch string `yaml:"batch,omitempty"`

	Restriction RestrictionConfig `yaml:"restriction,omitempty"`
	Recheck     RecheckConfig     `yaml:"recheck,omitempty"`
	Log         LogConfig         `yaml:"log,omitempty"`
}

// RestrictionConfig configures the system-wide capability restriction
// predicate.
type RestrictionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Filter  string `yaml:"filter,omitempty"`
}

// RecheckConfig configures the deferred grant recheck.
type RecheckConfig struct {
	Delay time.Duration `yaml:"delay,omitempty"`
}

// LogConfig configures the slog handler built by the CLI.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

const defaultRecheckDelay = 5 * time.Second

// DefaultBaseDir returns the per-user permgate directory.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".permgate"
	}
	return filepath.Join(home, ".permgate")
}

// DefaultPath returns the default system configuration file path.
func DefaultPath() string {
	return filepath.Join(DefaultBaseDir(), "system.yaml")
}

// Load reads the configuration at path. An empty path selects the
// default location; a missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read system config: %w", err)
	}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse system config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("system config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	base := DefaultBaseDir()
	if c.CatalogDir == "" {
		c.CatalogDir = filepath.Join(base, "catalog")
	}
	if c.ManifestDir == "" {
		c.ManifestDir = filepath.Join(base, "manifests")
	}
	if c.StatePath == "" {
		c.StatePath = filepath.Join(base, "state.yaml")
	}
	if c.GatesPath == "" {
		c.GatesPath = filepath.Join(base, "gates.yaml")
	}
	if c.User == "" {
		c.User = "owner"
	}
	if c.Batch == "" {
		c.Batch = string(values.BatchImmediate)
	}
	if c.Recheck.Delay == 0 {
		c.Recheck.Delay = defaultRecheckDelay
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every configuration problem found.
func (c *Config) Validate() error {
	var errs []string

	if err := values.BatchMode(c.Batch).Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Recheck.Delay < 0 {
		errs = append(errs, fmt.Sprintf("recheck delay must not be negative, got %s", c.Recheck.Delay))
	}
	if c.Restriction.Enabled && c.Restriction.Filter == "" {
		errs = append(errs, "restriction.filter is required when restriction is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q (debug, info, warn, error)", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format %q (text, json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// BatchMode returns the configured batch mode as a domain value.
func (c *Config) BatchMode() values.BatchMode {
	return values.BatchMode(c.Batch)
}
