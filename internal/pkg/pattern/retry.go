package pattern

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

type RetryConfig struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
	ShouldRetry  func(error) bool
	OnRetry      func(attempt int, err error, next time.Duration)
}

type RetryOption func(*RetryConfig)

// WithMaxAttempts bounds the number of calls to fn; n <= 0 retries until ctx
// is done.
func WithMaxAttempts(n int) RetryOption { return func(c *RetryConfig) { c.Attempts = n } }
func WithInitialDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) { c.InitialDelay = d }
}
func WithMaxDelay(d time.Duration) RetryOption { return func(c *RetryConfig) { c.MaxDelay = d } }
func WithMultiplier(m float64) RetryOption     { return func(c *RetryConfig) { c.Multiplier = m } }
func WithJitter(j float64) RetryOption         { return func(c *RetryConfig) { c.Jitter = j } }
func WithShouldRetry(f func(error) bool) RetryOption {
	return func(c *RetryConfig) { c.ShouldRetry = f }
}

// WithOnRetry registers a hook called after a failed attempt that will be
// retried, with the delay before the next attempt.
func WithOnRetry(f func(attempt int, err error, next time.Duration)) RetryOption {
	return func(c *RetryConfig) { c.OnRetry = f }
}

// Retry runs fn until it succeeds, the attempts are exhausted, ShouldRetry
// rejects the error, or ctx is done. The last error from fn is returned.
func Retry(ctx context.Context, fn func(attempt int) error, opts ...RetryOption) error {
	cfg := newRetryConfig(opts)

	var lastErr error
	for attempt := 1; cfg.Attempts <= 0 || attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return err
		}
		lastErr = err
		if cfg.Attempts > 0 && attempt == cfg.Attempts {
			break
		}

		delay := backoffDelay(cfg, attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}

// BackoffDelay returns the delay Retry would wait after the given failed
// attempt (1-based) under opts. Useful for clients that run their own retry
// loop but should back off the same way.
func BackoffDelay(attempt int, opts ...RetryOption) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return backoffDelay(newRetryConfig(opts), attempt)
}

func newRetryConfig(opts []RetryOption) RetryConfig {
	cfg := RetryConfig{
		Attempts:     5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}

	for _, o := range opts {
		o(&cfg)
	}

	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return cfg
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	base := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if base > float64(cfg.MaxDelay) {
		base = float64(cfg.MaxDelay)
	}
	delay := time.Duration(base)
	if cfg.Jitter > 0 {
		f := 1 + (rand.Float64()*2-1)*cfg.Jitter
		if f < 0 {
			f = 0
		}
		delay = time.Duration(float64(delay) * f)
	}
	return delay
}
