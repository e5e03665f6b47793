package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath          string        `env:"DB_PATH" envDefault:"data/hunt.db"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`
	EventTimezone   string        `env:"EVENT_TIMEZONE" envDefault:"Local"`
	ClaimRatePerMin int           `env:"CLAIM_RATE_PER_MIN" envDefault:"30"`
	SeedDemo        bool          `env:"SEED_DEMO" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.ClaimRatePerMin <= 0 {
		return nil, fmt.Errorf("CLAIM_RATE_PER_MIN must be positive, got %d", cfg.ClaimRatePerMin)
	}
	return &cfg, nil
}

// Location resolves EventTimezone. Event start times are naive wall-clock
// values and are interpreted in this location.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.EventTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading event timezone %q: %w", c.EventTimezone, err)
	}
	return loc, nil
}
