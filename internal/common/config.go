// Package common provides shared utilities for dhandash
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for dhandash
type Config struct {
	Environment     string        `toml:"environment"`
	DisplayCurrency string        `toml:"display_currency"` // Currency used for chart labels and log summaries ("INR" or "USD", default "INR")
	Server          ServerConfig  `toml:"server"`
	Dhan            DhanConfig    `toml:"dhan"`
	Equity          EquityConfig  `toml:"equity"`
	Logging         LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DhanConfig holds Dhan broker API configuration
type DhanConfig struct {
	BaseURL     string `toml:"base_url"`
	AccessToken string `toml:"access_token"`
	RateLimit   int    `toml:"rate_limit"`
	Timeout     string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *DhanConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Configured reports whether an access token is available
func (c *DhanConfig) Configured() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// EquityConfig controls the equity series buffer and its sampling throttle
type EquityConfig struct {
	Capacity        int     `toml:"capacity"`
	MinInterval     string  `toml:"min_interval"`     // always append when the last point is at least this old
	ChangeThreshold float64 `toml:"change_threshold"` // relative equity move that forces an append (0.001 = 0.1%)
	SeedMode        string  `toml:"seed_mode"`        // "single" or "synthetic"
	SyntheticPoints int     `toml:"synthetic_points"`
	PollInterval    string  `toml:"poll_interval"` // "0s" disables the background poller
}

// GetMinInterval parses and returns the min sampling interval
func (c *EquityConfig) GetMinInterval() time.Duration {
	d, err := time.ParseDuration(c.MinInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// GetPollInterval parses and returns the poll interval; zero means disabled
func (c *EquityConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// Seed modes for the equity series
const (
	SeedModeSingle    = "single"
	SeedModeSynthetic = "synthetic"
)

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "INR",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Dhan: DhanConfig{
			BaseURL:   "https://api.dhan.co",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Equity: EquityConfig{
			Capacity:        600,
			MinInterval:     "5s",
			ChangeThreshold: 0.001,
			SeedMode:        SeedModeSingle,
			SyntheticPoints: 60,
			PollInterval:    "0s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first if present; it never
// overrides variables already set in the process environment.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	validateDisplayCurrency(config)
	validateEquity(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DHANDASH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("DHANDASH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("DHANDASH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("DHANDASH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dc := os.Getenv("DHANDASH_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = strings.ToUpper(dc)
	}

	if mode := os.Getenv("DHANDASH_SEED_MODE"); mode != "" {
		config.Equity.SeedMode = strings.ToLower(mode)
	}

	if poll := os.Getenv("DHANDASH_POLL_INTERVAL"); poll != "" {
		config.Equity.PollInterval = poll
	}

	// Broker overrides
	if v := os.Getenv("DHAN_BASE_URL"); v != "" {
		config.Dhan.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DHAN_ACCESS_TOKEN"); v != "" {
		config.Dhan.AccessToken = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateDisplayCurrency ensures DisplayCurrency is "INR" or "USD", defaulting to "INR".
func validateDisplayCurrency(config *Config) {
	dc := strings.ToUpper(config.DisplayCurrency)
	if dc != "INR" && dc != "USD" {
		dc = "INR"
	}
	config.DisplayCurrency = dc
}

// validateEquity resets out-of-range equity settings to their defaults.
func validateEquity(config *Config) {
	defaults := NewDefaultConfig().Equity
	if config.Equity.Capacity <= 0 {
		config.Equity.Capacity = defaults.Capacity
	}
	if config.Equity.ChangeThreshold <= 0 {
		config.Equity.ChangeThreshold = defaults.ChangeThreshold
	}
	if config.Equity.SyntheticPoints <= 0 {
		config.Equity.SyntheticPoints = defaults.SyntheticPoints
	}
	switch config.Equity.SeedMode {
	case SeedModeSingle, SeedModeSynthetic:
	default:
		config.Equity.SeedMode = defaults.SeedMode
	}
}
