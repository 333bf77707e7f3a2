package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const configName = "ironlock"

// NewViper returns a Viper instance reading configFile, or the first
// ironlock.yaml/.yml found in the standard locations when configFile is
// empty. Environment variables prefixed IRONLOCK_ override file values,
// e.g. IRONLOCK_LOCK_TIMEOUT_OVERRIDE overrides lock.timeout_override.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("IRONLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	return findConfigFileInPaths([]string{
		".",
		filepath.Join(home, ".ironlock"),
	})
}

// findConfigFileInPaths returns the first ironlock.yaml or ironlock.yml in paths.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindEnvKeys binds nested keys so Unmarshal sees env-only values.
func bindEnvKeys(v *viper.Viper) {
	_ = v.BindEnv("data_dir")
	_ = v.BindEnv("log_level")
	_ = v.BindEnv("storage.backend")
	_ = v.BindEnv("storage.postgres_dsn")
	_ = v.BindEnv("storage.namespace")
	_ = v.BindEnv("lock.check_interval")
	_ = v.BindEnv("lock.timeout_override")
	_ = v.BindEnv("lock.default_timeout")
	_ = v.BindEnv("api.enabled")
	_ = v.BindEnv("api.addr")
}

// Load reads configuration from v, applies defaults and validates it.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
