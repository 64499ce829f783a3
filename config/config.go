// Package config holds all runtime configuration for the talos service,
// loaded from talos.yaml and TALOS_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// StorageConfig holds report persistence settings.
type StorageConfig struct {
	// SQLitePath is the report history database file (TALOS_STORAGE_SQLITE_PATH).
	SQLitePath string `mapstructure:"sqlite_path"`
}

// APIConfig holds the read-only HTTP API settings.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Config holds all configuration for the talos service.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// SchemaDir holds the declarative schema YAML files.
	SchemaDir string `mapstructure:"schema_dir"`
	// BundleDir is the root of per-host raw bundle directories.
	BundleDir string `mapstructure:"bundle_dir"`
	// ScriptsDir is the built-in helper scripts directory, the final stop
	// in script resolution order.
	ScriptsDir string `mapstructure:"scripts_dir"`

	// Workers is the fleet-run parallelism (one host per task).
	Workers int `mapstructure:"workers"`

	// EnableMetrics controls Prometheus instrumentation in the engine.
	EnableMetrics bool `mapstructure:"enable_metrics"`

	Storage StorageConfig `mapstructure:"storage"`
	API     APIConfig     `mapstructure:"api"`
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("schema_dir", "./schemas")
	viper.SetDefault("bundle_dir", "./bundles")
	viper.SetDefault("scripts_dir", "./scripts")
	viper.SetDefault("workers", 4)
	viper.SetDefault("enable_metrics", true)
	viper.SetDefault("storage.sqlite_path", "./data/talos.db")
	viper.SetDefault("api.host", "127.0.0.1")
	viper.SetDefault("api.port", 8080)
}

// Load reads configuration from talos.yaml (working directory or
// /etc/talos) and the environment. A missing config file is fine; the
// defaults describe a complete local setup.
func Load() (*Config, error) {
	viper.SetConfigName("talos")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/talos")

	viper.SetEnvPrefix("TALOS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints the decoder cannot.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	return nil
}
