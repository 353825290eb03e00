package httputil

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// OnRetry is called before each backoff sleep. Retry numbers start at 1.
	OnRetry func(retry int, delay time.Duration, err error)
}

var jitter = rand.Float64

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	return c
}

// Backoff returns a full-jitter delay for the given retry number:
// a uniform value in [0, min(InitialDelay*Multiplier^retry, MaxDelay)).
func Backoff(cfg RetryConfig, retry int) time.Duration {
	cfg = cfg.withDefaults()
	ceiling := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(retry))
	if ceiling > float64(cfg.MaxDelay) || math.IsInf(ceiling, 0) {
		ceiling = float64(cfg.MaxDelay)
	}
	return time.Duration(jitter() * ceiling)
}

// Retry runs fn until it succeeds or returns an error that retryable rejects.
// After MaxRetries failed retries it gives up with ErrRetriesExhausted
// wrapping the last error.
func Retry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	for retry := 0; ; retry++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if retry >= cfg.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, retry+1, err)
		}

		delay := Backoff(cfg, retry+1)
		if cfg.OnRetry != nil {
			cfg.OnRetry(retry+1, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
