package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
	return c
}

type retryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry retries transient provider failures with capped exponential backoff.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retryProvider{inner: p, cfg: cfg.withDefaults()}
}

func (r *retryProvider) Name() string  { return r.inner.Name() }
func (r *retryProvider) Model() string { return r.inner.Model() }

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !Transient(err) || attempt == r.cfg.MaxAttempts-1 {
			break
		}
		t := time.NewTimer(r.backoff(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, lastErr
}

func (r *retryProvider) backoff(attempt int, err error) time.Duration {
	var le *Error
	if errors.As(err, &le) && le.RetryAfter > 0 {
		return min(le.RetryAfter, r.cfg.MaxBackoff)
	}
	wait := r.cfg.InitialBackoff << attempt
	if wait <= 0 || wait > r.cfg.MaxBackoff {
		wait = r.cfg.MaxBackoff
	}
	// +/-20% jitter
	jitter := time.Duration(float64(wait) * 0.2 * (2*rand.Float64() - 1))
	return max(wait+jitter, 0)
}
