package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADDR", "")
	t.Setenv("ICAL_SYNC_INTERVAL_HOURS", "")
	t.Setenv("ICAL_FETCH_CONCURRENCY", "")
	t.Setenv("SYNC_DEGRADED_FALLBACK", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SyncInterval != 2*time.Hour {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.FetchConcurrency != 4 {
		t.Errorf("FetchConcurrency = %d", cfg.FetchConcurrency)
	}
	if cfg.DegradedFallback {
		t.Error("DegradedFallback should default to off")
	}
	if cfg.TokenLifetime != 72*time.Hour {
		t.Errorf("TokenLifetime = %v", cfg.TokenLifetime)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADDR", ":9999")
	t.Setenv("ICAL_SYNC_INTERVAL_HOURS", "6")
	t.Setenv("ICAL_FETCH_TIMEOUT", "10s")
	t.Setenv("ICAL_FETCH_CONCURRENCY", "8")
	t.Setenv("SYNC_DEGRADED_FALLBACK", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SyncInterval != 6*time.Hour {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency = %d", cfg.FetchConcurrency)
	}
	if !cfg.DegradedFallback {
		t.Error("DegradedFallback not enabled")
	}
}

func TestLoadClampsConcurrency(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ICAL_FETCH_CONCURRENCY", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FetchConcurrency != 1 {
		t.Errorf("FetchConcurrency = %d, want 1", cfg.FetchConcurrency)
	}
}
