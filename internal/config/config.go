package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide configuration. It is constructed once at
// startup and passed explicitly to whatever needs it.
type Config struct {
	// Addr is the address the HTTP server listens on.
	Addr string `env:"ADDR" envDefault:":8080"`
	// DBPath is the path to the sqlite database file.
	DBPath string `env:"DB_PATH" envDefault:"finance.db"`
	// JWTSecret signs and verifies session tokens.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
