package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration, loaded from the environment
type Config struct {
	// HTTP server
	Host string `env:"HOST" envDefault:""`
	Port int    `env:"PORT" envDefault:"8080"`

	// Storage backend: "memory" or "redis"
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Phase loop tunables
	ScoreTimeout time.Duration `env:"SCORE_TIMEOUT" envDefault:"5m"`
	RoundTimeout time.Duration `env:"ROUND_TIMEOUT" envDefault:"5m"`
	WinningScore int           `env:"WINNING_SCORE" envDefault:"10"`
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
