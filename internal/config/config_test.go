package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/depwatch/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
monitor:
  check_interval: 1m
  history_size: 50
  alert_threshold: 2
services:
  - name: api
    display_name: API Service
    type: http
    target: https://api.example.com/health
    timeout: 3s
  - name: db
    type: tcp
    target: db.example.com:5432
  - name: github-api
    type: github
alerts:
  webhook:
    url: https://hooks.example.com/depwatch
    cooldown: 30m
retry:
  max_retries: 5
  base_delay: 500ms
server:
  address: ":9090"
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Monitor.CheckInterval.Duration != time.Minute {
		t.Errorf("expected 1m interval, got %s", cfg.Monitor.CheckInterval.Duration)
	}
	if cfg.Monitor.HistorySize != 50 {
		t.Errorf("expected history size 50, got %d", cfg.Monitor.HistorySize)
	}
	if cfg.Monitor.AlertThreshold != 2 {
		t.Errorf("expected alert threshold 2, got %d", cfg.Monitor.AlertThreshold)
	}
	if len(cfg.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(cfg.Services))
	}

	api := cfg.Services[0]
	if api.DisplayName != "API Service" || api.Timeout.Duration != 3*time.Second {
		t.Errorf("unexpected api service: %+v", api)
	}
	if api.ExpectedStatus != 200 {
		t.Errorf("expected default expected_status 200, got %d", api.ExpectedStatus)
	}

	db := cfg.Services[1]
	if db.DisplayName != "db" {
		t.Errorf("display_name should default to name, got %q", db.DisplayName)
	}
	if db.Timeout.Duration != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %s", db.Timeout.Duration)
	}

	gh := cfg.Services[2]
	if gh.WarnBelow != 100 {
		t.Errorf("expected default warn_below 100, got %d", gh.WarnBelow)
	}

	if cfg.Retry.MaxRetries != 5 || cfg.Retry.BaseDelay.Duration != 500*time.Millisecond {
		t.Errorf("unexpected retry config: %+v", cfg.Retry)
	}
	if cfg.Retry.Multiplier != 2.0 {
		t.Errorf("expected default multiplier 2.0, got %v", cfg.Retry.Multiplier)
	}
	if !cfg.Retry.JitterEnabled() {
		t.Error("jitter should default to enabled")
	}
	if cfg.Alerts.Webhook.Cooldown.Duration != 30*time.Minute {
		t.Errorf("expected 30m cooldown, got %s", cfg.Alerts.Webhook.Cooldown.Duration)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Server.Address)
	}
}

func TestLoad_MonitorDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
services:
  - name: api
    type: http
    target: https://example.com
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Monitor.CheckInterval.Duration != 5*time.Minute {
		t.Errorf("expected default interval 5m, got %s", cfg.Monitor.CheckInterval.Duration)
	}
	if cfg.Monitor.HistorySize != 100 {
		t.Errorf("expected default history 100, got %d", cfg.Monitor.HistorySize)
	}
	if cfg.Monitor.AlertThreshold != 3 {
		t.Errorf("expected default threshold 3, got %d", cfg.Monitor.AlertThreshold)
	}
	if cfg.Monitor.CacheTTL.Duration != 60*time.Second {
		t.Errorf("expected default cache ttl 60s, got %s", cfg.Monitor.CacheTTL.Duration)
	}
	if cfg.Monitor.CheckTimeout.Duration != 10*time.Second {
		t.Errorf("expected default check timeout 10s, got %s", cfg.Monitor.CheckTimeout.Duration)
	}
	if cfg.Monitor.Workers != 5 {
		t.Errorf("expected default 5 workers, got %d", cfg.Monitor.Workers)
	}
	if cfg.Monitor.ShutdownTimeout.Duration != 5*time.Second {
		t.Errorf("expected default shutdown timeout 5s, got %s", cfg.Monitor.ShutdownTimeout.Duration)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no services", "server:\n  address: ':8080'\n", "at least one service"},
		{"missing name", "services:\n  - type: http\n    target: x\n", "name is required"},
		{"duplicate name", "services:\n  - name: a\n    type: http\n    target: x\n  - name: a\n    type: http\n    target: y\n", "duplicate service name"},
		{"invalid type", "services:\n  - name: a\n    type: smtp\n    target: x\n", "invalid type"},
		{"missing target", "services:\n  - name: a\n    type: http\n", "target is required"},
		{"bad duration", "services:\n  - name: a\n    type: http\n    target: x\n    timeout: soon\n", "parsing config"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoad_GithubTargetOptional(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
services:
  - name: github-api
    type: github
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Services[0].Target != "" {
		t.Errorf("expected empty target left for checker default, got %q", cfg.Services[0].Target)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
