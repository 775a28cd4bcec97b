// Package config holds the runtime configuration of the sync service.
//
// Values are layered: defaults (New), then an optional YAML file named by
// JOBSYNC_CONFIG, then plain environment variables (PORT, DATABASE_URL, ...).
// France Travail credentials are deliberately absent: the token provider
// reads them from the environment on every exchange.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTokenURL  = "https://entreprise.francetravail.fr/connexion/oauth2/access_token?realm=%2Fpartenaire"
	DefaultSearchURL = "https://api.francetravail.io/partenaire/offresdemploi/v2/offres/search"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port           string `koanf:"port"`
	LogLevel       string `koanf:"log_level"`
	LogDevelopment bool   `koanf:"log_development"`

	// DatabaseURL is either a Postgres DSN or a SQLite file path.
	DatabaseURL string `koanf:"database_url"`

	TokenURL    string        `koanf:"france_travail_token_url"`
	SearchURL   string        `koanf:"france_travail_search_url"`
	ResultRange string        `koanf:"france_travail_range"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	HistoricalStepDays int `koanf:"historical_step_days"`

	RedisURL string        `koanf:"redis_url"`
	CacheTTL time.Duration `koanf:"cache_ttl"`

	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// DailySchedule is a cron spec such as "@every 24h"; empty disables it.
	DailySchedule string `koanf:"daily_schedule"`

	OTelCollectorURL string `koanf:"otel_collector_url"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		Port:               "8080",
		LogLevel:           "info",
		DatabaseURL:        "instance/jobs.db",
		TokenURL:           DefaultTokenURL,
		SearchURL:          DefaultSearchURL,
		ResultRange:        "0-9",
		HTTPTimeout:        15 * time.Second,
		HistoricalStepDays: 7,
		CacheTTL:           5 * time.Minute,
		NATSSubject:        "jobs.postings.ingested",
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Port) == "":
		return fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DatabaseURL) == "":
		return fmt.Errorf("%w: database_url must not be empty", ErrInvalidConfig)
	case c.HistoricalStepDays < 1:
		return fmt.Errorf("%w: historical_step_days must be positive, got %d", ErrInvalidConfig, c.HistoricalStepDays)
	case strings.TrimSpace(c.ResultRange) == "":
		return fmt.Errorf("%w: france_travail_range must not be empty", ErrInvalidConfig)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("%w: http_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
