package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, want %q", cfg.DBHost, "localhost")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.CopyCacheSize != 256 {
		t.Errorf("CopyCacheSize = %d, want 256", cfg.CopyCacheSize)
	}
	if cfg.CopyCacheTTL != 24*time.Hour {
		t.Errorf("CopyCacheTTL = %v, want 24h", cfg.CopyCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("COPY_CACHE_SIZE", "32")
	t.Setenv("COPY_CACHE_TTL", "1h")
	t.Setenv("DOCTORSENDER_RPS", "5.5")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()

	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost = %q, want %q", cfg.DBHost, "db.internal")
	}
	if cfg.CopyCacheSize != 32 {
		t.Errorf("CopyCacheSize = %d, want 32", cfg.CopyCacheSize)
	}
	if cfg.CopyCacheTTL != time.Hour {
		t.Errorf("CopyCacheTTL = %v, want 1h", cfg.CopyCacheTTL)
	}
	if cfg.DoctorSenderRPS != 5.5 {
		t.Errorf("DoctorSenderRPS = %v, want 5.5", cfg.DoctorSenderRPS)
	}
	// Invalid numbers fall back to the default.
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d, want 120", cfg.RateLimitPerMinute)
	}
}
