// Package config loads engine configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the keybeat engine and CLI.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Collector endpoint and credentials.
	APIURL      string        `envconfig:"KEYBEAT_API_URL" default:"https://api.keybeat.dev"`
	APIKey      string        `envconfig:"KEYBEAT_API_KEY"`
	HTTPTimeout time.Duration `envconfig:"KEYBEAT_HTTP_TIMEOUT" default:"30s"`

	// Offline store location; empty means ~/.keybeat/payloads.db.
	DBPath string `envconfig:"KEYBEAT_DB_PATH"`

	// Aggregation window length in seconds.
	WindowSeconds int `envconfig:"KEYBEAT_WINDOW_SECONDS" default:"60"`

	// Prometheus listen address; empty disables the metrics endpoint.
	MetricsAddr string `envconfig:"KEYBEAT_METRICS_ADDR"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.WindowSeconds <= 0 {
		return nil, fmt.Errorf("KEYBEAT_WINDOW_SECONDS must be positive, got %d", cfg.WindowSeconds)
	}
	return &cfg, nil
}

// Window returns the aggregation window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
