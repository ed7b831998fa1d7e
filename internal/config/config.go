// Package config loads sentrypath settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings. Flags are applied on top by the CLI.
type Config struct {
	// UserID is the persistence identity. Empty means local-only.
	UserID string `yaml:"user_id"`

	// DBPath is the SQLite database file. Empty means store.DefaultDBPath.
	DBPath string `yaml:"db_path"`

	// CatalogPath overrides the embedded feature catalog.
	CatalogPath string `yaml:"catalog_path"`

	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// RedisConfig selects the Redis record store when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Mode  string `yaml:"mode"`  // development or production
	File  string `yaml:"file"`  // empty means stderr
}

// ReconcileConfig configures the progress reconciler.
type ReconcileConfig struct {
	// PersistTimeout bounds each background round trip, e.g. "10s".
	// Empty disables the timeout.
	PersistTimeout string `yaml:"persist_timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Prefix: "sentrypath",
		},
		Logging: LoggingConfig{
			Level: "warn",
			Mode:  "development",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/sentrypath/config.yaml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sentrypath", "config.yaml")
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SENTRYPATH_USER"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("SENTRYPATH_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SENTRYPATH_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("SENTRYPATH_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SENTRYPATH_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("SENTRYPATH_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("SENTRYPATH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// PersistTimeout returns the reconcile timeout, or zero when unset or invalid.
func (c *Config) PersistTimeout() time.Duration {
	if c.Reconcile.PersistTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Reconcile.PersistTimeout)
	if err != nil {
		return 0
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks field values.
func (c *Config) Validate() error {
	valid := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log level %q (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if c.Reconcile.PersistTimeout != "" {
		d, err := time.ParseDuration(c.Reconcile.PersistTimeout)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid reconcile.persist_timeout %q", c.Reconcile.PersistTimeout)
		}
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d", c.Redis.DB)
	}
	return nil
}

// Authenticated reports whether a persistence identity is configured.
func (c *Config) Authenticated() bool {
	return c.UserID != ""
}
