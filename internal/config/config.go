package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Service describes a single monitored dependency.
type Service struct {
	Name           string            `yaml:"name"`
	DisplayName    string            `yaml:"display_name"`
	Type           string            `yaml:"type"`
	Target         string            `yaml:"target"`
	Timeout        Duration          `yaml:"timeout"`
	ExpectedStatus int               `yaml:"expected_status"`
	Headers        map[string]string `yaml:"headers"`
	WarnBelow      int               `yaml:"warn_below"`
}

// MonitorConfig holds the orchestrator's scheduling and history knobs.
type MonitorConfig struct {
	CheckInterval   Duration `yaml:"check_interval"`
	HistorySize     int      `yaml:"history_size"`
	AlertThreshold  int      `yaml:"alert_threshold"`
	CacheTTL        Duration `yaml:"cache_ttl"`
	CheckTimeout    Duration `yaml:"check_timeout"`
	Workers         int      `yaml:"workers"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// WebhookConfig holds alert webhook settings.
type WebhookConfig struct {
	URL      string   `yaml:"url"`
	Cooldown Duration `yaml:"cooldown"`
}

// AlertsConfig holds all alert configuration.
type AlertsConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
}

// RetryConfig holds the default retry policy for outbound calls.
type RetryConfig struct {
	MaxRetries int      `yaml:"max_retries"`
	BaseDelay  Duration `yaml:"base_delay"`
	Multiplier float64  `yaml:"multiplier"`
	MaxDelay   Duration `yaml:"max_delay"`
	Jitter     *bool    `yaml:"jitter"`
}

// JitterEnabled reports whether jitter is on; omitting the field means on.
func (r RetryConfig) JitterEnabled() bool {
	return r.Jitter == nil || *r.Jitter
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// Config is the root application configuration.
type Config struct {
	Monitor  MonitorConfig `yaml:"monitor"`
	Services []Service     `yaml:"services"`
	Alerts   AlertsConfig  `yaml:"alerts"`
	Retry    RetryConfig   `yaml:"retry"`
	Server   ServerConfig  `yaml:"server"`
}

var validTypes = map[string]bool{
	"http":   true,
	"tcp":    true,
	"github": true,
}

// Load reads, parses, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults.
	if cfg.Monitor.CheckInterval.Duration == 0 {
		cfg.Monitor.CheckInterval = Duration{5 * time.Minute}
	}
	if cfg.Monitor.HistorySize == 0 {
		cfg.Monitor.HistorySize = 100
	}
	if cfg.Monitor.AlertThreshold == 0 {
		cfg.Monitor.AlertThreshold = 3
	}
	if cfg.Monitor.CacheTTL.Duration == 0 {
		cfg.Monitor.CacheTTL = Duration{60 * time.Second}
	}
	if cfg.Monitor.CheckTimeout.Duration == 0 {
		cfg.Monitor.CheckTimeout = Duration{10 * time.Second}
	}
	if cfg.Monitor.Workers == 0 {
		cfg.Monitor.Workers = 5
	}
	if cfg.Monitor.ShutdownTimeout.Duration == 0 {
		cfg.Monitor.ShutdownTimeout = Duration{5 * time.Second}
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BaseDelay.Duration == 0 {
		cfg.Retry.BaseDelay = Duration{time.Second}
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2.0
	}
	if cfg.Retry.MaxDelay.Duration == 0 {
		cfg.Retry.MaxDelay = Duration{60 * time.Second}
	}
	if cfg.Alerts.Webhook.Cooldown.Duration == 0 {
		cfg.Alerts.Webhook.Cooldown = Duration{15 * time.Minute}
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if len(cfg.Services) == 0 {
		return nil, fmt.Errorf("at least one service must be configured")
	}

	names := make(map[string]bool, len(cfg.Services))
	for i := range cfg.Services {
		svc := &cfg.Services[i]
		if svc.Name == "" {
			return nil, fmt.Errorf("service[%d]: name is required", i)
		}
		if names[svc.Name] {
			return nil, fmt.Errorf("duplicate service name %q", svc.Name)
		}
		names[svc.Name] = true

		if !validTypes[svc.Type] {
			return nil, fmt.Errorf("service %q: invalid type %q (must be http, tcp, or github)", svc.Name, svc.Type)
		}
		if svc.Target == "" && svc.Type != "github" {
			return nil, fmt.Errorf("service %q: target is required", svc.Name)
		}

		if svc.DisplayName == "" {
			svc.DisplayName = svc.Name
		}
		if svc.Timeout.Duration == 0 {
			svc.Timeout = Duration{5 * time.Second}
		}
		if svc.Type == "http" && svc.ExpectedStatus == 0 {
			svc.ExpectedStatus = 200
		}
		if svc.Type == "github" && svc.WarnBelow == 0 {
			svc.WarnBelow = 100
		}
	}

	return &cfg, nil
}
