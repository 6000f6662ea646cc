// Package retry provides a generic retry executor with exponential
// backoff, full jitter, and HTTP-aware helpers (retryable status
// classification, Retry-After parsing). Every outbound network call in
// the system that must survive transient failures goes through it.
package retry

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// Policy is the immutable retry configuration passed to the executor.
type Policy struct {
	// MaxRetries bounds the retries after the initial attempt, so an
	// operation runs at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// Multiplier grows the delay after each retry.
	Multiplier float64

	// MaxDelay caps every computed delay.
	MaxDelay time.Duration

	// Jitter draws the effective sleep uniformly from
	// [0, delay * (1 + JitterFactor)] to spread concurrent retriers.
	Jitter       bool
	JitterFactor float64

	// RetryIf classifies errors. Nil means every error is retryable.
	// A non-retryable error propagates immediately, untouched.
	RetryIf func(error) bool
}

// DefaultPolicy mirrors the defaults used across the system.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		BaseDelay:    time.Second,
		Multiplier:   2.0,
		MaxDelay:     60 * time.Second,
		Jitter:       true,
		JitterFactor: 0.1,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	if p.Jitter && p.JitterFactor <= 0 {
		p.JitterFactor = 0.1
	}
	return p
}

// Delays precomputes the whole delay schedule up front:
// delay(i) = min(MaxDelay, BaseDelay * Multiplier^(i-1)) for attempts
// 1..MaxRetries. Each delay is derived independently from the attempt
// number, so no floating point drift accumulates across attempts.
// Jitter is applied at sleep time, not here.
func (p Policy) Delays() []time.Duration {
	p = p.withDefaults()
	delays := make([]time.Duration, p.MaxRetries)
	for i := range delays {
		d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(i))
		if d >= float64(p.MaxDelay) {
			delays[i] = p.MaxDelay
			continue
		}
		delays[i] = time.Duration(d)
	}
	return delays
}

// IsRetryableStatus reports whether an HTTP status code warrants a
// retry. A zero code means the request never produced a status
// (network-level failure) and is always retryable. Otherwise only 429
// and the transient 5xx family qualify.
func IsRetryableStatus(statusCode int) bool {
	if statusCode == 0 {
		return true
	}
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RetryAfter returns the delay a response demands. A numeric
// Retry-After header is honored up to max; a missing or non-numeric
// (HTTP-date) value falls back to fallback.
func RetryAfter(headers http.Header, fallback, max time.Duration) time.Duration {
	v := headers.Get("Retry-After")
	if v == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		// HTTP-date form, not worth parsing here.
		return fallback
	}
	d := time.Duration(secs * float64(time.Second))
	if d > max {
		return max
	}
	return d
}
