package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string        `env:"APP_ENV" envDefault:"dev"`
	Port          string        `env:"PORT" envDefault:"8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"./dev.db"`
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	SessionSecret string        `env:"SESSION_SECRET"`
	RatesURL      string        `env:"RATES_URL"`
	RatesInterval time.Duration `env:"RATES_INTERVAL" envDefault:"6h"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads a local .env file (best effort) and parses the environment
// into a Config. Production should rely on real env injection; the dotenv
// pass only fills gaps for local development.
func Load() (Config, error) {
	_ = loadDotEnv(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}
