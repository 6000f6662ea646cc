package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted matches (via errors.Is) any error returned after the
// whole retry budget was spent.
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError wraps the last underlying error once all attempts have
// failed. errors.Is(err, ErrExhausted) and errors.As/Is on the wrapped
// error both work.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// scheduleBackOff adapts the precomputed jittered delay schedule to the
// backoff.BackOff interface. A server-demanded delay (Retry-After) set
// via override replaces the next scheduled delay, unjittered.
type scheduleBackOff struct {
	delays       []time.Duration
	idx          int
	jitter       bool
	jitterFactor float64
	maxDelay     time.Duration
	override     time.Duration
}

func newScheduleBackOff(p Policy) *scheduleBackOff {
	return &scheduleBackOff{
		delays:       p.Delays(),
		jitter:       p.Jitter,
		jitterFactor: p.JitterFactor,
		maxDelay:     p.MaxDelay,
	}
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.idx >= len(b.delays) {
		return backoff.Stop
	}
	d := b.delays[b.idx]
	b.idx++
	if b.override > 0 {
		d = b.override
		b.override = 0
		if d > b.maxDelay {
			d = b.maxDelay
		}
		return d
	}
	if b.jitter {
		d = time.Duration(rand.Float64() * float64(d) * (1 + b.jitterFactor))
	}
	return d
}

func (b *scheduleBackOff) Reset() {
	b.idx = 0
	b.override = 0
}

// Do runs op under the policy: on each retryable failure except the
// last it sleeps per the backoff schedule and tries again, logging a
// warning per retry. A non-retryable error (Policy.RetryIf returns
// false) propagates immediately and untouched. When the budget is spent
// the last error is returned wrapped in ExhaustedError. Context
// cancellation interrupts the inter-attempt sleep.
func Do(ctx context.Context, logger *slog.Logger, p Policy, op func() error) error {
	p = p.withDefaults()
	return run(ctx, logger, p, newScheduleBackOff(p), op)
}

func run(ctx context.Context, logger *slog.Logger, p Policy, bo *scheduleBackOff, op func() error) error {
	if logger == nil {
		logger = slog.Default()
	}

	attempt := 0
	nonRetryable := false
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if p.RetryIf != nil && !p.RetryIf(err) {
			nonRetryable = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", p.MaxRetries+1,
			"delay", delay,
			"error", err,
		)
	}

	err := backoff.RetryNotify(wrapped, backoff.WithContext(bo, ctx), notify)
	if err == nil {
		return nil
	}
	if nonRetryable {
		return err
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	return &ExhaustedError{Attempts: attempt, Err: err}
}
