// Package config loads blockpage settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"blockpage/internal/domain"
	"blockpage/internal/logger"
	"blockpage/internal/storage"
)

// Config is the complete configuration file.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the backend. Path applies to sqlite; the network
// fields to postgres and mysql.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` // supports ${ENV_VAR}
	SSLMode  string `yaml:"ssl_mode"`

	// PasswordRef names a secret ("env:NAME" or "keychain:ACCOUNT") that
	// replaces Password when set.
	PasswordRef string `yaml:"password_ref"`
}

// EngineConfig tunes how block operations retry after a conflict.
type EngineConfig struct {
	ConflictRetries int           `yaml:"conflict_retries"`
	RetryMinDelay   time.Duration `yaml:"retry_min_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// Default returns the configuration used when no file is given: a SQLite
// database under the user's data directory.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Driver: string(domain.DatabaseDriverSQLite),
			Path:   filepath.Join(homeDir, ".local", "share", "blockpage", "blockpage.db"),
		},
		Engine: EngineConfig{
			ConflictRetries: 3,
			RetryMinDelay:   10 * time.Millisecond,
			RetryMaxDelay:   200 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads filename over the defaults, expanding ${VAR} references, and
// validates the result.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	driver := domain.DatabaseDriver(c.Database.Driver)
	if !driver.Valid() {
		errs = append(errs, ValidationError{
			Field:   "database.driver",
			Value:   c.Database.Driver,
			Message: "must be one of: sqlite, postgres, mysql",
		}.Error())
	}
	if driver == domain.DatabaseDriverSQLite && c.Database.Path == "" {
		errs = append(errs, ValidationError{Field: "database.path", Message: "required for sqlite"}.Error())
	}
	if (driver == domain.DatabaseDriverPostgres || driver == domain.DatabaseDriverMySQL) && c.Database.Host == "" {
		errs = append(errs, ValidationError{Field: "database.host", Message: "required for " + c.Database.Driver}.Error())
	}

	if c.Engine.ConflictRetries < 0 || c.Engine.ConflictRetries > 20 {
		errs = append(errs, ValidationError{
			Field:   "engine.conflict_retries",
			Value:   c.Engine.ConflictRetries,
			Message: "must be between 0 and 20",
		}.Error())
	}
	if c.Engine.RetryMinDelay < 0 || c.Engine.RetryMaxDelay < c.Engine.RetryMinDelay {
		errs = append(errs, ValidationError{
			Field:   "engine.retry_max_delay",
			Value:   c.Engine.RetryMaxDelay,
			Message: "must be at least retry_min_delay",
		}.Error())
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Value: c.Log.Level, Message: err.Error()}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

// ConnConfig converts the database section for storage.Open.
func (c *Config) ConnConfig() storage.ConnConfig {
	return storage.ConnConfig{
		Driver:   domain.DatabaseDriver(c.Database.Driver),
		Path:     c.Database.Path,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Name:     c.Database.Name,
		User:     c.Database.User,
		Password: c.Database.Password,
		SSLMode:  c.Database.SSLMode,
	}
}
