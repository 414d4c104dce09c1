package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Backoff returns the delay before retry number attempt (0-based).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= c.BackoffFactor
		if d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, attempts run out or ctx is done.
// ErrCircuitOpen is returned immediately.
func Retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil || errors.Is(err, ErrCircuitOpen) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
