// Package config defines service configuration and its loader.
//
// Conventions:
// - New() returns defaults; Load(ctx) layers .env, YAML and env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"slices"
)

// Supported store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the match/qualification store: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the postgres DSN used when Store is postgres.
	DatabaseURL string `koanf:"database_url"`

	// MaxUpdateAttempts bounds the optimistic-lock retry loop.
	MaxUpdateAttempts int `koanf:"max_update_attempts"`

	// BracketSize is the number of finalists. Only 8 is supported.
	BracketSize int `koanf:"bracket_size"`

	// QualificationRounds maps a mode (bm, mr, gp) to the rounds played in a
	// qualification match.
	QualificationRounds map[string]int `koanf:"qualification_rounds"`

	// FinalsTargets maps a mode to the win count that decides a finals match.
	FinalsTargets map[string]int `koanf:"finals_targets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Store:             StoreMemory,
		MaxUpdateAttempts: 5,
		BracketSize:       8,
		QualificationRounds: map[string]int{
			"bm": 4,
			"mr": 4,
			"gp": 4,
		},
		FinalsTargets: map[string]int{
			"bm": 5,
			"mr": 5,
			"gp": 3,
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains([]string{StoreMemory, StorePostgres}, c.Store):
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
	case c.MaxUpdateAttempts < 1:
		return fmt.Errorf("%w: max_update_attempts must be at least 1", ErrInvalidConfig)
	case c.BracketSize != 8:
		return fmt.Errorf("%w: bracket_size %d is not supported", ErrInvalidConfig, c.BracketSize)
	}
	for mode, rounds := range c.QualificationRounds {
		if rounds <= 0 {
			return fmt.Errorf("%w: qualification_rounds.%s must be positive", ErrInvalidConfig, mode)
		}
	}
	for mode, target := range c.FinalsTargets {
		if target <= 0 {
			return fmt.Errorf("%w: finals_targets.%s must be positive", ErrInvalidConfig, mode)
		}
	}
	return nil
}
