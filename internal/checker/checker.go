// Package checker provides the concrete check-function adapters the
// monitor probes dependencies with.
package checker

import (
	"context"
	"fmt"

	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/health"
)

// Checker performs a single health check.
type Checker interface {
	Check(ctx context.Context) health.Result
}

// New returns the appropriate Checker for the given service configuration.
func New(svc config.Service) (Checker, error) {
	switch svc.Type {
	case "http":
		return newHTTPChecker(svc), nil
	case "tcp":
		return newTCPChecker(svc), nil
	case "github":
		return newGitHubChecker(svc), nil
	default:
		return nil, fmt.Errorf("unknown checker type %q", svc.Type)
	}
}
