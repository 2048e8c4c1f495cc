// Package config loads service configuration from environment variables,
// with optional .env support for local development.
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents service configuration.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Addr   string `env:"RETOUCH_ADDR" envDefault:":8080"`

	// GeminiAPIKey is the single credential the service needs.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	Model     string `env:"RETOUCH_MODEL" envDefault:"nano-banana-2"`
	OutputDir string `env:"RETOUCH_OUTPUT_DIR" envDefault:"output"`

	// RequestsPerMinute caps outbound edit calls; 0 disables the limiter.
	RequestsPerMinute int `env:"RETOUCH_REQUESTS_PER_MINUTE" envDefault:"10"`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"2m"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; missing files are not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	return cfg, nil
}
