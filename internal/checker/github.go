package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/health"
)

const defaultRateLimitURL = "https://api.github.com/rate_limit"

// githubChecker probes the GitHub API by reading the rate-limit
// endpoint. A reachable API with few requests remaining is a WARNING,
// not an error: the dependency is up but about to throttle us.
type githubChecker struct {
	svc    config.Service
	token  string
	client *http.Client
}

func newGitHubChecker(svc config.Service) *githubChecker {
	if svc.Target == "" {
		svc.Target = defaultRateLimitURL
	}
	return &githubChecker{
		svc:    svc,
		token:  os.Getenv("GITHUB_TOKEN"),
		client: &http.Client{Timeout: svc.Timeout.Duration},
	}
}

type rateLimitResponse struct {
	Rate struct {
		Limit     int   `json:"limit"`
		Remaining int   `json:"remaining"`
		Reset     int64 `json:"reset"`
	} `json:"rate"`
}

func (c *githubChecker) Check(ctx context.Context) health.Result {
	start := time.Now()

	if c.token == "" {
		return health.Result{
			Status:    health.StatusUnknown,
			Message:   "GitHub token not configured",
			Timestamp: start,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.svc.Target, nil)
	if err != nil {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("creating request: %v", err),
			Timestamp: start,
		}
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	for k, v := range c.svc.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("GitHub API check error: %v", err),
			Timestamp: start,
			Latency:   latency,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("GitHub API returned status %d", resp.StatusCode),
			Timestamp: start,
			Latency:   latency,
		}
	}

	var rl rateLimitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rl); err != nil {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("decoding rate limit response: %v", err),
			Timestamp: start,
			Latency:   latency,
		}
	}

	status := health.StatusOK
	message := fmt.Sprintf("GitHub API healthy: %d requests remaining", rl.Rate.Remaining)
	if rl.Rate.Remaining < c.svc.WarnBelow {
		status = health.StatusWarning
		message = fmt.Sprintf("GitHub API rate limit low: %d remaining", rl.Rate.Remaining)
	}

	return health.Result{
		Status:    status,
		Message:   message,
		Timestamp: start,
		Latency:   latency,
		Extra: map[string]any{
			"rate_limit":     rl.Rate.Limit,
			"rate_remaining": rl.Rate.Remaining,
			"rate_reset":     rl.Rate.Reset,
		},
	}
}
