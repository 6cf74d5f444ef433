package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("token ttl=%v", cfg.TokenTTL)
	}
	if cfg.RatePerSecond <= 0 || cfg.RateBurst <= 0 {
		t.Fatalf("rate limits must default positive: %d/%d", cfg.RatePerSecond, cfg.RateBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VENDRA_ADDR", ":9999")
	t.Setenv("VENDRA_TOKEN_TTL", "1h")
	t.Setenv("VENDRA_AUTH_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("token ttl=%v", cfg.TokenTTL)
	}
	if cfg.AuthSecret != "s3cret" {
		t.Fatalf("secret=%q", cfg.AuthSecret)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("VENDRA_TOKEN_TTL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
