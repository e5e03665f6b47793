package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %s, want 30s", cfg.SweepInterval)
	}
	if cfg.ClaimRatePerMin != 30 {
		t.Errorf("ClaimRatePerMin = %d, want 30", cfg.ClaimRatePerMin)
	}
	if !cfg.SeedDemo {
		t.Error("SeedDemo = false, want true")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SWEEP_INTERVAL", "5s")
	t.Setenv("EVENT_TIMEZONE", "America/New_York")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.SweepInterval != 5*time.Second {
		t.Errorf("SweepInterval = %s", cfg.SweepInterval)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("Location = %s", loc)
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SWEEP_INTERVAL", "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
