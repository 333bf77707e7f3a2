// Package config provides configuration loading for IronLock.
package config

import (
	"log/slog"
	"strings"
	"time"
)

// Default values applied by SetDefaults.
const (
	DefaultDataDir       = "./data"
	DefaultLogLevel      = "info"
	DefaultCheckInterval = 10 * time.Second
	DefaultAPIAddr       = "127.0.0.1:8477"
	DefaultBackend       = "bbolt"
)

// Config is the top-level IronLock configuration.
type Config struct {
	// DataDir holds the client's persistent key-value store.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir" validate:"required"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Storage selects the key-value backend.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Lock configures the inactivity monitor.
	Lock LockConfig `yaml:"lock" mapstructure:"lock"`

	// API configures the local control API.
	API APIConfig `yaml:"api" mapstructure:"api"`
}

// StorageConfig selects where preferences and the PIN-protected key live.
// The bbolt backend keeps a file under DataDir.
type StorageConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=bbolt postgres"`
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn" validate:"required_if=Backend postgres"`
	Namespace   string `yaml:"namespace" mapstructure:"namespace"`
}

// LockConfig configures the inactivity monitor.
type LockConfig struct {
	// CheckInterval is the period between lock evaluations.
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval" validate:"min=100ms"`

	// TimeoutOverride, when set, is a platform-level timeout in minutes that
	// takes precedence over the stored user preference. Negative disables
	// automatic locking.
	TimeoutOverride *int `yaml:"timeout_override" mapstructure:"timeout_override"`

	// DefaultTimeout is stored as the user preference on first run when no
	// preference exists yet.
	DefaultTimeout *int `yaml:"default_timeout" mapstructure:"default_timeout"`
}

// APIConfig configures the local control API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// SetDefaults fills in zero-valued optional fields.
func (c *Config) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Lock.CheckInterval == 0 {
		c.Lock.CheckInterval = DefaultCheckInterval
	}
	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
