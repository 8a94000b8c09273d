package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	if _, err := Load(); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("Model", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("SESSION_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":5000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Store.Path != "safespeak.db" {
		t.Fatalf("unexpected db path %q", cfg.Store.Path)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected session ttl %s", cfg.Auth.SessionTTL)
	}
	if cfg.Cache.Enabled() {
		t.Fatal("cache should be disabled without REDIS_URL")
	}
	if cfg.AI.Enabled() {
		t.Fatal("ai classifier should be disabled without Model")
	}
	if cfg.Moderation.BreakerMaxFailures != 5 {
		t.Fatalf("unexpected breaker threshold %d", cfg.Moderation.BreakerMaxFailures)
	}
}

func TestLoadServerAddrVariants(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}

	t.Setenv("PORT", "80 80")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for PORT with spaces")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("CACHE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid CACHE_TTL")
	}
}

func TestBreakerThresholdFloor(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("BREAKER_MAX_FAILURES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Moderation.BreakerMaxFailures != 1 {
		t.Fatalf("expected floor of 1, got %d", cfg.Moderation.BreakerMaxFailures)
	}
}
