package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// StatusError is a retryable HTTP status observed on a response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

var errNotReplayable = errors.New("request body is not replayable")

// DoRequest executes an HTTP request under the policy. Network failures
// and retryable statuses (429, 500, 502, 503, 504) are retried with a
// fresh clone of the request per attempt; a numeric Retry-After header
// on a retryable response overrides the next scheduled delay. Responses
// with any other status, including 4xx, are returned to the caller as
// is. Requests with a body must carry GetBody (http.NewRequest sets it
// for common body types).
func DoRequest(ctx context.Context, client *http.Client, req *http.Request, p Policy, logger *slog.Logger) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	p = p.withDefaults()
	bo := newScheduleBackOff(p)

	var resp *http.Response
	op := func() error {
		attempt := req.Clone(ctx)
		if req.Body != nil {
			if req.GetBody == nil {
				return errNotReplayable
			}
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("rewinding request body: %w", err)
			}
			attempt.Body = body
		}

		r, err := client.Do(attempt)
		if err != nil {
			// No status at all: network-level failure, retryable.
			return err
		}
		if IsRetryableStatus(r.StatusCode) {
			bo.override = RetryAfter(r.Header, 0, p.MaxDelay)
			r.Body.Close()
			return &StatusError{StatusCode: r.StatusCode}
		}
		resp = r
		return nil
	}

	callerRetryIf := p.RetryIf
	p.RetryIf = func(err error) bool {
		if errors.Is(err, errNotReplayable) {
			return false
		}
		if callerRetryIf != nil {
			return callerRetryIf(err)
		}
		return true
	}

	if err := run(ctx, logger, p, bo, op); err != nil {
		return nil, err
	}
	return resp, nil
}
