// Package alert provides alert handler adapters for the health
// monitor: structured logging and retried webhook delivery.
package alert

import (
	"log/slog"

	"github.com/hazz-dev/depwatch/internal/health"
)

// LogHandler returns an alert handler that records every alert through
// the given logger. Pass nil to use the default logger.
func LogHandler(logger *slog.Logger) health.AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(serviceID string, a health.Alert) {
		logger.Warn("health alert",
			"service", serviceID,
			"display_name", a.DisplayName,
			"status", a.Status,
			"message", a.Message,
			"failures", a.FailureCount,
		)
	}
}
