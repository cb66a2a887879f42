// Package config handles configuration loading for nsefolio.
// It supports YAML config files with environment variable overrides and
// an optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"       yaml:"api"       json:"api"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"   json:"storage"`
	Refresh   RefreshConfig   `mapstructure:"refresh"   yaml:"refresh"   json:"refresh"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers" json:"providers"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// StorageConfig selects the holdings store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"` // "sqlite", "postgres" or "memory"
	DSN    string `mapstructure:"dsn"    yaml:"dsn"    json:"-"`
}

// RefreshConfig holds the periodic refresh settings.
type RefreshConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec" json:"interval_sec"`
}

// Interval returns the periodic refresh interval.
func (r RefreshConfig) Interval() time.Duration {
	if r.IntervalSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(r.IntervalSec) * time.Second
}

// ProvidersConfig holds the upstream quote source settings.
type ProvidersConfig struct {
	PriceBaseURL    string `mapstructure:"price_base_url"    yaml:"price_base_url"    json:"price_base_url"`
	RatioBaseURL    string `mapstructure:"ratio_base_url"    yaml:"ratio_base_url"    json:"ratio_base_url"`
	PriceTimeoutSec int    `mapstructure:"price_timeout_sec" yaml:"price_timeout_sec" json:"price_timeout_sec"`
	RatioTimeoutSec int    `mapstructure:"ratio_timeout_sec" yaml:"ratio_timeout_sec" json:"ratio_timeout_sec"`
	CacheTTLSec     int    `mapstructure:"cache_ttl_sec"     yaml:"cache_ttl_sec"     json:"cache_ttl_sec"`
	RatioRateLimit  int    `mapstructure:"ratio_rate_limit"  yaml:"ratio_rate_limit"  json:"ratio_rate_limit"` // requests per second
}

// PriceTimeout returns the price request timeout.
func (p ProvidersConfig) PriceTimeout() time.Duration {
	return seconds(p.PriceTimeoutSec, 15)
}

// RatioTimeout returns the ratio page request timeout.
func (p ProvidersConfig) RatioTimeout() time.Duration {
	return seconds(p.RatioTimeoutSec, 20)
}

// CacheTTL returns the provider response cache lifetime.
func (p ProvidersConfig) CacheTTL() time.Duration {
	return seconds(p.CacheTTLSec, 10)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

const envPrefix = "NSEFOLIO"

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.nsefolio/config.yaml (home directory)
//  3. /etc/nsefolio/config.yaml (system)
//
// Environment variables override config file values.
// Format: NSEFOLIO_<SECTION>_<KEY>, e.g., NSEFOLIO_STORAGE_DSN
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".nsefolio"))
	v.AddConfigPath("/etc/nsefolio")
	bindEnv(v)

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadDotEnv loads .env into the process environment. A missing file is fine.
func loadDotEnv() {
	_ = godotenv.Load()
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", filepath.Join(homeDir(), ".nsefolio", "nsefolio.db"))

	// Refresh defaults
	v.SetDefault("refresh.interval_sec", 15)

	// Provider defaults
	v.SetDefault("providers.price_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("providers.ratio_base_url", "https://www.google.com")
	v.SetDefault("providers.price_timeout_sec", 15)
	v.SetDefault("providers.ratio_timeout_sec", 20)
	v.SetDefault("providers.cache_ttl_sec", 10)
	v.SetDefault("providers.ratio_rate_limit", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if dsn := os.Getenv(envPrefix + "_STORAGE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
