package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazz-dev/depwatch/internal/health"
	"github.com/hazz-dev/depwatch/internal/retry"
)

// Webhook posts alerts as JSON to a configured URL. Alerts for the same
// service within the cooldown window are suppressed, which makes the
// monitor's level-triggered firing safe to point at a paging system.
// Delivery goes through the retry executor and runs asynchronously so a
// slow endpoint never blocks a monitoring pass.
type Webhook struct {
	url      string
	cooldown time.Duration
	policy   retry.Policy
	client   *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewWebhook creates a webhook alert sender. Pass nil logger to use the
// default logger.
func NewWebhook(url string, cooldown time.Duration, policy retry.Policy, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url:      url,
		cooldown: cooldown,
		policy:   policy,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}
}

type webhookPayload struct {
	AlertID      string `json:"alert_id"`
	Service      string `json:"service"`
	DisplayName  string `json:"display_name"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	FailureCount int    `json:"failure_count"`
	LatencyMs    int64  `json:"latency_ms"`
	CheckedAt    string `json:"checked_at"`
	Source       string `json:"source"`
}

// Handle implements health.AlertHandler.
func (w *Webhook) Handle(serviceID string, a health.Alert) {
	w.mu.Lock()
	last, seen := w.lastSent[serviceID]
	if seen && time.Since(last) < w.cooldown {
		w.mu.Unlock()
		w.logger.Info("alert suppressed by cooldown", "service", serviceID)
		return
	}
	w.lastSent[serviceID] = time.Now()
	w.mu.Unlock()

	go w.send(serviceID, a)
}

func (w *Webhook) send(serviceID string, a health.Alert) {
	payload := webhookPayload{
		AlertID:      uuid.NewString(),
		Service:      serviceID,
		DisplayName:  a.DisplayName,
		Status:       string(a.Status),
		Message:      a.Message,
		FailureCount: a.FailureCount,
		LatencyMs:    a.LastCheck.Latency.Milliseconds(),
		CheckedAt:    a.LastCheck.Timestamp.UTC().Format(time.RFC3339),
		Source:       "depwatch",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("marshaling webhook payload", "service", serviceID, "error", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("creating webhook request", "service", serviceID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, err := retry.DoRequest(ctx, w.client, req, w.policy, w.logger)
	if err != nil {
		w.logger.Error("sending webhook", "service", serviceID, "url", w.url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn("webhook returned non-2xx status",
			"service", serviceID,
			"status", resp.StatusCode,
		)
	}
}
