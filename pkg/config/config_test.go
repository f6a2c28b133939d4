package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ACTIVITY_LOG_POLICY", "")
	t.Setenv("PLACES_PAGE_DELAY_MS", "")
	t.Setenv("PLACES_MAX_PAGES_CAP", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.ServerPort)
	}
	if cfg.Places.PageDelay != 2*time.Second {
		t.Fatalf("expected 2s page delay, got %s", cfg.Places.PageDelay)
	}
	if cfg.Places.MaxPagesCap != 3 {
		t.Fatalf("expected max pages cap 3, got %d", cfg.Places.MaxPagesCap)
	}
	if cfg.ActivityLogPolicy != ActivityLogBestEffort {
		t.Fatalf("expected best_effort, got %s", cfg.ActivityLogPolicy)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day sessions, got %s", cfg.SessionTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SERVER_PORT", "abc"},
		{"ACTIVITY_LOG_POLICY", "sometimes"},
		{"PLACES_MAX_PAGES_CAP", "0"},
		{"MINIO_USE_SSL", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}
}

func TestParseCSVEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	got := parseCSVEnv("CORS_ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}
