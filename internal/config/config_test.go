package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
	if cfg.APIPort != 8001 {
		t.Errorf("APIPort = %d, want 8001", cfg.APIPort)
	}
	if cfg.RateLimit != 100 {
		t.Errorf("RateLimit = %d, want 100", cfg.RateLimit)
	}
	if cfg.CredentialsFile != "credentials.json" {
		t.Errorf("CredentialsFile = %q, want credentials.json", cfg.CredentialsFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("API_PORT", "9000")
	t.Setenv("SPREADSHEET_ID", "sheet-123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.APIPort != 9000 {
		t.Errorf("APIPort = %d, want 9000", cfg.APIPort)
	}
	if err := cfg.RequireAPI(); err != nil {
		t.Errorf("RequireAPI = %v, want nil", err)
	}
}

func TestRequireBot(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireBot(); err == nil {
		t.Error("RequireBot should fail without a token")
	}
	cfg.TelegramToken = "token"
	cfg.SpreadsheetID = "sheet"
	if err := cfg.RequireBot(); err != nil {
		t.Errorf("RequireBot = %v, want nil", err)
	}
}
