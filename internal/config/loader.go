package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the optional YAML config file.
const FileEnv = "JOBSYNC_CONFIG"

var envKeys = map[string]struct{}{
	"port":                      {},
	"log_level":                 {},
	"log_development":           {},
	"database_url":              {},
	"france_travail_token_url":  {},
	"france_travail_search_url": {},
	"france_travail_range":      {},
	"http_timeout":              {},
	"historical_step_days":      {},
	"redis_url":                 {},
	"cache_ttl":                 {},
	"nats_url":                  {},
	"nats_subject":              {},
	"daily_schedule":            {},
	"otel_collector_url":        {},
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. YAML file if JOBSYNC_CONFIG is set
//  3. environment, e.g. DATABASE_URL, HISTORICAL_STEP_DAYS
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Only keys the Config knows about; the rest of the environment is ignored.
	envProvider := env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := envKeys[key]; !ok {
			return ""
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
