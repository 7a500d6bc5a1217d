package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int           `env:"PORT" envDefault:"4000"`
	DatabasePath   string        `env:"DATABASE_PATH" envDefault:"./data.db"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change_this_secret"`
	InviteCode     string        `env:"INVITE_CODE" envDefault:"friends-only-2025"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"0s"` // zero means tokens never expire
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`

	// Audit events older than EventRetention are pruned on EventPruneSchedule.
	EventRetention     time.Duration `env:"EVENT_RETENTION" envDefault:"720h"`
	EventPruneSchedule string        `env:"EVENT_PRUNE_SCHEDULE" envDefault:"@daily"`
}

// Load loads configuration from an optional .env file and the environment,
// falling back to defaults.
func Load() (*Config, error) {
	return load(".env")
}

func load(dotenvPath string) (*Config, error) {
	// Variables already present in the environment win over the file.
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []error
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.ServerPort))
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		errs = append(errs, errors.New("DATABASE_PATH must not be empty"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if cfg.InviteCode == "" {
		errs = append(errs, errors.New("INVITE_CODE must not be empty"))
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost))
	}
	if cfg.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must not be negative, got %s", cfg.TokenTTL))
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if cfg.EventRetention <= 0 {
		errs = append(errs, fmt.Errorf("EVENT_RETENTION must be > 0, got %s", cfg.EventRetention))
	}
	if _, err := cron.ParseStandard(cfg.EventPruneSchedule); err != nil {
		errs = append(errs, fmt.Errorf("EVENT_PRUNE_SCHEDULE: %w", err))
	}
	return errors.Join(errs...)
}
