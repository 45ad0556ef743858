package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pkgscope configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Archive scanning
	Scan ScanConfig `yaml:"scan"`

	// Scan history storage
	Store StoreConfig `yaml:"store"`

	// Directory watching
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig configures archive scanning.
type ScanConfig struct {
	Workers  int  `yaml:"workers"`
	UseCache bool `yaml:"use_cache"`
}

// StoreConfig configures the scan history store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	HistoryLimit int    `yaml:"history_limit"`
}

// WatchConfig configures directory watching.
type WatchConfig struct {
	Debounce      string `yaml:"debounce"`
	RescanOnStart bool   `yaml:"rescan_on_start"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pkgscope",
		Version: "0.2.0",

		Scan: ScanConfig{
			Workers:  8,
			UseCache: true,
		},

		Store: StoreConfig{
			DatabasePath: "data/pkgscope.db",
			HistoryLimit: 50,
		},

		Watch: WatchConfig{
			Debounce:      "500ms",
			RescanOnStart: true,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config is not an error, run on defaults.
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Database path from environment
	if path := os.Getenv("PKGSCOPE_DB"); path != "" {
		c.Store.DatabasePath = path
	}

	if level := os.Getenv("PKGSCOPE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// Invalid worker counts are ignored rather than failing startup.
	if workers := os.Getenv("PKGSCOPE_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			c.Scan.Workers = n
		}
	}
}

// GetDebounce returns the watch debounce window as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// ValidLogLevels lists all supported log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan workers must be positive, got %d", c.Scan.Workers)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch debounce %q: %w", c.Watch.Debounce, err)
	}

	if c.Store.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.Store.HistoryLimit)
	}

	return nil
}
