package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// aliases maps a primary variable to the alternate name read when it is unset.
var aliases = map[string]string{
	"POSTHOG_API_KEY": "POSTHOG_KEY",
	"DATABASE_URL":    "DB_URL",
}

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{Environment: environ()}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadLogging reads only the logging settings. Tools that never talk to
// PostHog use it so they do not require an API key.
func LoadLogging() (LoggingConfig, error) {
	return loadSection[LoggingConfig]()
}

// LoadDatabase reads only the run history database settings.
func LoadDatabase() (DatabaseConfig, error) {
	dc, err := loadSection[DatabaseConfig]()
	if err != nil {
		return dc, err
	}
	if !dc.Enabled() {
		return dc, fmt.Errorf("config validation: DATABASE_URL is required (DB_URL is accepted as an alias)")
	}
	return dc, nil
}

func loadSection[T any]() (T, error) {
	var section T
	if err := env.ParseWithOptions(&section, env.Options{Environment: environ()}); err != nil {
		return section, fmt.Errorf("config load: %w", err)
	}
	return section, nil
}

// environ returns the process environment with aliases folded into their
// primary names. A set primary always wins over its alias.
func environ() map[string]string {
	vars := env.ToMap(os.Environ())
	for primary, alt := range aliases {
		if vars[primary] != "" {
			continue
		}
		if v := vars[alt]; v != "" {
			vars[primary] = v
		}
	}
	return vars
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// PostHog validation
	if strings.TrimSpace(c.PostHog.APIKey) == "" {
		errs = append(errs, "POSTHOG_API_KEY is required (POSTHOG_KEY is accepted as an alias)")
	}
	if u, err := url.Parse(c.PostHog.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("POSTHOG_HOST (%q) must be an absolute URL", c.PostHog.Host))
	}
	if c.PostHog.BatchSize <= 0 {
		errs = append(errs, "POSTHOG_BATCH_SIZE must be positive")
	}
	if c.PostHog.FlushInterval <= 0 {
		errs = append(errs, "POSTHOG_FLUSH_INTERVAL must be positive")
	}

	// Import validation
	if c.Import.ProgressInterval <= 0 {
		errs = append(errs, "IMPORT_PROGRESS_INTERVAL must be positive")
	}

	// Database validation (only when history is enabled)
	if c.Database.Enabled() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	// Metrics validation
	if c.Metrics.Textfile != "" && !strings.HasSuffix(c.Metrics.Textfile, ".prom") {
		errs = append(errs, fmt.Sprintf("METRICS_TEXTFILE (%q) must end in .prom", c.Metrics.Textfile))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The API key and database URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "PostHog: {APIKey: %s, Host: %q, Debug: %v, BatchSize: %d}, ",
		maskKey(c.PostHog.APIKey), c.PostHog.Host, c.PostHog.Debug, c.PostHog.BatchSize)
	fmt.Fprintf(&b, "Import: {StrictTimestamps: %v, ProgressInterval: %d}, ",
		c.Import.StrictTimestamps, c.Import.ProgressInterval)
	if c.Database.Enabled() {
		fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d}, ", c.Database.MaxConns)
	} else {
		b.WriteString("Database: {disabled}, ")
	}
	fmt.Fprintf(&b, "Metrics: {Textfile: %q}, ", c.Metrics.Textfile)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

// maskKey keeps the conventional "phc_" prefix visible and hides the rest.
func maskKey(key string) string {
	if key == "" {
		return "[UNSET]"
	}
	if len(key) > 4 && strings.HasPrefix(key, "phc_") {
		return "phc_[MASKED]"
	}
	return "[MASKED]"
}
