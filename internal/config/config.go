package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GURUBU_"

type Config struct {
	ServerAddr     string        `env:"ADDR" envDefault:"localhost:8000" validate:"required"`
	SigningSecret  string        `env:"SIGNING_KEY" envDefault:"wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU=" validate:"required,base64"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	RoomTTL        time.Duration `env:"ROOM_TTL" envDefault:"12h" validate:"gt=0"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"12h" validate:"gt=0"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	Pretty         bool          `env:"PRETTY"`
	// SigningKey is the decoded SigningSecret, set by Validate.
	SigningKey []byte
}

// Load reads the configuration from the environment after loading the
// given .env files. Missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration and decodes the signing key.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	signingKey, err := decodeSigningSecret(c.SigningSecret)
	if err != nil {
		return fmt.Errorf("decode signing secret: %w", err)
	}
	c.SigningKey = signingKey

	return nil
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("signing secret cannot be empty")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

// NewConfig builds a validated configuration with default timings.
func NewConfig(serverAddr, base64Secret string, allowedOrigins []string) (*Config, error) {
	cfg := &Config{
		ServerAddr:     serverAddr,
		SigningSecret:  base64Secret,
		AllowedOrigins: allowedOrigins,
		RoomTTL:        12 * time.Hour,
		SweepInterval:  12 * time.Hour,
		LogLevel:       "info",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
