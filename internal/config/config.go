// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	PostHog  PostHogConfig
	Import   ImportConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// PostHogConfig holds the ingestion client settings.
type PostHogConfig struct {
	// APIKey is the project API key (required).
	// POSTHOG_KEY is accepted as an alias.
	APIKey string `env:"POSTHOG_API_KEY"`

	// Host is the ingestion endpoint (default: https://us.i.posthog.com)
	Host string `env:"POSTHOG_HOST" envDefault:"https://us.i.posthog.com"`

	// Debug enables verbose client logging (default: false)
	Debug bool `env:"POSTHOG_DEBUG" envDefault:"false"`

	// BatchSize is the number of events the client sends per request (default: 100)
	BatchSize int `env:"POSTHOG_BATCH_SIZE" envDefault:"100"`

	// FlushInterval is how often the client flushes in the background (default: 5s)
	FlushInterval time.Duration `env:"POSTHOG_FLUSH_INTERVAL" envDefault:"5s"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// StrictTimestamps rejects rows whose timestamp is present but malformed (default: false)
	StrictTimestamps bool `env:"IMPORT_STRICT_TIMESTAMPS" envDefault:"false"`

	// ProgressInterval is the number of rows between progress log lines (default: 100)
	ProgressInterval int `env:"IMPORT_PROGRESS_INTERVAL" envDefault:"100"`
}

// DatabaseConfig holds the optional run history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. History is disabled when empty.
	// DB_URL is accepted as an alias.
	URL string `env:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" envDefault:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" envDefault:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
}

// Enabled reports whether run history should be recorded.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// MetricsConfig holds Prometheus textfile settings.
type MetricsConfig struct {
	// Textfile is where run metrics are written. Metrics are skipped when empty.
	Textfile string `env:"METRICS_TEXTFILE"`

	// Job is the job label attached to every metric (default: posthog_import)
	Job string `env:"METRICS_JOB" envDefault:"posthog_import"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}
