package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.ClassifierTimeout != 3*time.Second {
		t.Errorf("expected default classifier timeout 3s, got %s", cfg.ClassifierTimeout)
	}
	if cfg.BaseStation != "Base Station" {
		t.Errorf("expected default base station sentinel, got %q", cfg.BaseStation)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TRIAGE_CLASSIFIER_TIMEOUT", "1500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("BASE_STATION", "Depot 4")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.ClassifierTimeout != 1500*time.Millisecond {
		t.Errorf("expected classifier timeout 1.5s, got %s", cfg.ClassifierTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("expected trimmed origin, got %q", cfg.CORSAllowedOrigins[1])
	}
	if cfg.UseMemoryQueue {
		t.Error("expected memory queue disabled")
	}
	if cfg.BaseStation != "Depot 4" {
		t.Errorf("expected base station override, got %q", cfg.BaseStation)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("ASSESSMENT_CACHE_TTL", "not-a-duration")

	cfg := Load()
	if cfg.AssessmentCacheTTL != 15*time.Minute {
		t.Errorf("expected default TTL on parse failure, got %s", cfg.AssessmentCacheTTL)
	}
}
