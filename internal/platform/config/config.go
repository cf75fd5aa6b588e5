package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/pscheid92/instaplanner/internal/domain"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" default:"development"`
	Port    string `env:"PORT" default:"8080"`
	OpsPort string `env:"OPS_PORT" default:"9090"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days

	DBHost       string `env:"DB_HOST"`
	DBPort       int    `env:"DB_PORT" default:"5432"`
	DBName       string `env:"DB_NAME"`
	DBUser       string `env:"DB_USER"`
	DBPass       string `env:"DB_PASS"`
	DBSSLMode    string `env:"DB_SSLMODE" default:"prefer"`
	DBConfigFile string `env:"DB_CONFIG_FILE" default:"config/database.yaml"`

	RedisURL        string        `env:"REDIS_URL"`
	OptionsCacheTTL time.Duration `env:"OPTIONS_CACHE_TTL" default:"10s"`

	Theme    string `env:"THEME" default:"default"`
	BasePath string `env:"BASE_PATH"`

	RateLimit float64 `env:"RATE_LIMIT" default:"10"`
	RateBurst int     `env:"RATE_BURST" default:"30"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ConnectionParams returns the parameters set through the environment.
func (c *Config) ConnectionParams() domain.ConnectionParams {
	return domain.ConnectionParams{
		Host:     c.DBHost,
		Port:     strconv.Itoa(c.DBPort),
		Name:     c.DBName,
		User:     c.DBUser,
		Password: c.DBPass,
		SSLMode:  c.DBSSLMode,
	}
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.BasePath = strings.TrimRight(cfg.BasePath, "/")

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 16 {
		return errors.New("SESSION_SECRET must be at least 16 characters")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.DBPort < 1 || cfg.DBPort > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", cfg.DBPort)
	}
	if cfg.RateLimit <= 0 || cfg.RateBurst <= 0 {
		return errors.New("RATE_LIMIT and RATE_BURST must be positive")
	}
	if cfg.BasePath != "" && !strings.HasPrefix(cfg.BasePath, "/") {
		return fmt.Errorf("BASE_PATH must start with /, got %q", cfg.BasePath)
	}
	return nil
}
