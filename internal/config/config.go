// Package config loads process configuration from the environment.
// A .env file in the working directory is picked up automatically.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds every policy knob owned by the surrounding service.
type Config struct {
	// Telegram bot transport.
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	// Google Sheets store.
	SpreadsheetID   string `env:"SPREADSHEET_ID"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`

	// Read path.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	// Dashboard API.
	APIPort    int           `env:"API_PORT" envDefault:"8001"`
	RateLimit  int           `env:"RATE_LIMIT" envDefault:"100"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"60s"`

	// Receipt photo handling; both optional, features degrade when unset.
	GCSBucket   string `env:"GCS_BUCKET"`
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// RequireBot validates the settings the bot process cannot run without.
func (c *Config) RequireBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("config: TELEGRAM_TOKEN is not set")
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("config: SPREADSHEET_ID is not set")
	}
	return nil
}

// RequireAPI validates the settings the API process cannot run without.
func (c *Config) RequireAPI() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("config: SPREADSHEET_ID is not set")
	}
	return nil
}
