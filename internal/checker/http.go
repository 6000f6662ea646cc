package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/health"
)

type httpChecker struct {
	svc    config.Service
	client *http.Client
}

func newHTTPChecker(svc config.Service) *httpChecker {
	return &httpChecker{
		svc:    svc,
		client: &http.Client{Timeout: svc.Timeout.Duration},
	}
}

func (c *httpChecker) Check(ctx context.Context) health.Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.svc.Target, nil)
	if err != nil {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("creating request: %v", err),
			Timestamp: start,
		}
	}
	for k, v := range c.svc.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		// A timed-out dependency may just be slow; only a refused or
		// failed connection is a hard error.
		if isTimeout(err) {
			return health.Result{
				Status:    health.StatusWarning,
				Message:   fmt.Sprintf("%s timed out after %s", c.svc.DisplayName, c.svc.Timeout.Duration),
				Timestamp: start,
				Latency:   latency,
			}
		}
		return health.Result{
			Status:    health.StatusError,
			Message:   err.Error(),
			Timestamp: start,
			Latency:   latency,
		}
	}
	resp.Body.Close()

	if resp.StatusCode != c.svc.ExpectedStatus {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("%s returned status %d, expected %d", c.svc.DisplayName, resp.StatusCode, c.svc.ExpectedStatus),
			Timestamp: start,
			Latency:   latency,
		}
	}

	return health.Result{
		Status:    health.StatusOK,
		Message:   fmt.Sprintf("%s is healthy", c.svc.DisplayName),
		Timestamp: start,
		Latency:   latency,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
