package config

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Colorizer.BaseURL != "http://localhost:8000" {
		t.Errorf("unexpected base url %q", cfg.Colorizer.BaseURL)
	}
	if cfg.Poll.MaxAttempts != 30 {
		t.Errorf("expected 30 attempts, got %d", cfg.Poll.MaxAttempts)
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Errorf("expected 2s interval, got %s", cfg.Poll.Interval)
	}
	if cfg.Colorizer.HTTPTimeout != 30*time.Second {
		t.Errorf("expected 30s http timeout, got %s", cfg.Colorizer.HTTPTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Errorf("expected 10MiB limit, got %d", cfg.Upload.MaxBytes)
	}
	if want := []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}; !slices.Equal(cfg.Upload.AllowedExtensions, want) {
		t.Errorf("expected %v, got %v", want, cfg.Upload.AllowedExtensions)
	}
	if cfg.Database.URL != "" || cfg.Redis.URL != "" || cfg.RabbitMQ.URL != "" {
		t.Errorf("expected optional backends to be unset, got %+v %+v %+v", cfg.Database, cfg.Redis, cfg.RabbitMQ)
	}
}

func TestPollBudget_CoversSlowAttempts(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 30 attempts, each a 2s pause plus a request that may hang for 30s.
	if got := cfg.PollBudget(); got != 16*time.Minute {
		t.Errorf("expected 16m budget, got %s", got)
	}

	cfg.Colorizer.HTTPTimeout = 0
	if got := cfg.PollBudget(); got != 60*time.Second {
		t.Errorf("expected 60s budget without request time, got %s", got)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COLORIZE_BASE_URL", "https://colorizer.example.com/")
	t.Setenv("POLL_MAX_ATTEMPTS", "5")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", " .png , .jpg,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Colorizer.BaseURL != "https://colorizer.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Colorizer.BaseURL)
	}
	if cfg.Poll.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.Poll.MaxAttempts)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %s", cfg.Poll.Interval)
	}
	if want := []string{".png", ".jpg"}; !slices.Equal(cfg.Upload.AllowedExtensions, want) {
		t.Errorf("expected %v, got %v", want, cfg.Upload.AllowedExtensions)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis url %q", cfg.Redis.URL)
	}
}

func TestLoad_RejectsInvalidPolling(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POLL_MAX_ATTEMPTS", "0")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "POLL_MAX_ATTEMPTS") {
		t.Errorf("expected POLL_MAX_ATTEMPTS error, got %v", err)
	}
}
