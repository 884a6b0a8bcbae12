package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Backend names accepted for CREDENTIALS_BACKEND.
const (
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	AppEnv     string `env:"APP_ENV" default:"development"`
	ListenAddr string `env:"LISTEN_ADDR" default:":8080"`

	// APIBaseURL is the root of the user-management backend,
	// e.g. "http://localhost:8000/api".
	APIBaseURL  string        `env:"API_BASE_URL"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" default:"10s"`

	CredentialsBackend string `env:"CREDENTIALS_BACKEND" default:"bolt"`
	CredentialsPath    string `env:"CREDENTIALS_PATH" default:"adminpulse.db"`
	RedisURL           string `env:"REDIS_URL"`

	// TokenEncryptionKey enables AES-GCM encryption of stored tokens.
	// Empty means tokens are stored as-is.
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`

	SessionSecret string `env:"SESSION_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	switch cfg.CredentialsBackend {
	case BackendBolt:
		if cfg.CredentialsPath == "" {
			return fmt.Errorf("CREDENTIALS_PATH is required when CREDENTIALS_BACKEND is bolt")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CREDENTIALS_BACKEND is redis")
		}
	case BackendMemory:
		// nothing to check; volatile storage is a deliberate dev/test choice
	default:
		return fmt.Errorf("CREDENTIALS_BACKEND must be one of bolt, redis, memory (got %q)", cfg.CredentialsBackend)
	}

	if cfg.TokenEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
		if err != nil {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	return nil
}
