package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration, populated from the environment.
type Config struct {
	Addr          string        `env:"VENDRA_ADDR" envDefault:":8080"`
	PostgresDSN   string        `env:"VENDRA_PG_DSN"`
	AuthSecret    string        `env:"VENDRA_AUTH_SECRET"`
	TokenTTL      time.Duration `env:"VENDRA_TOKEN_TTL" envDefault:"15m"`
	RateBurst     int           `env:"VENDRA_RATE_BURST" envDefault:"40"`
	RatePerSecond int           `env:"VENDRA_RATE_PER_SECOND" envDefault:"20"`
	MaxBodyBytes  int64         `env:"VENDRA_MAX_BODY_BYTES" envDefault:"1048576"`
	MigrationsDir string        `env:"VENDRA_MIGRATIONS_DIR" envDefault:"ops/migrations/sql"`
	SeedsDir      string        `env:"VENDRA_SEEDS_DIR" envDefault:"ops/migrations/seed"`
}

// Load reads an optional .env file, then parses the environment. A missing
// .env is fine; local development relies on it, deployments set real env vars.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
