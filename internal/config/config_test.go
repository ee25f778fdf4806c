package config

import (
	"testing"
	"time"
)

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ORIGINS", "https://shop.example, https://admin.example ,")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("APP_BASE_URL", "https://shop.example/")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.SMTP.Port != 2525 {
		t.Fatalf("unexpected smtp port %d", cfg.SMTP.Port)
	}
	if cfg.AppBaseURL != "https://shop.example" {
		t.Fatalf("unexpected base url %q", cfg.AppBaseURL)
	}
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "soon")
	t.Setenv("SMTP_PORT", "x")

	cfg := FromEnv()
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.SMTP.Port != 587 {
		t.Fatalf("expected default port, got %d", cfg.SMTP.Port)
	}
}
