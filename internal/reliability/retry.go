// Package reliability retries operations against remote key sources and
// stores with exponential backoff.
package reliability

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy decides whether and when to retry.
type Policy interface {
	// NextDelay returns the delay before the next attempt, given the
	// 0-indexed attempt that just failed.
	NextDelay(attempt int) time.Duration
	// ShouldRetry reports whether err from attempt warrants another try.
	ShouldRetry(err error, attempt int) bool
	// MaxAttempts includes the initial attempt.
	MaxAttempts() int
}

// Config holds the parameters of an ExponentialBackoff policy.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter is the fraction of the delay randomised in both directions.
	Jitter float64
	// Retryable classifies errors. Nil retries every error.
	Retryable func(error) bool
}

// DefaultConfig returns three attempts starting at 100ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// ExponentialBackoff multiplies the delay after each failed attempt.
type ExponentialBackoff struct {
	cfg Config
}

// NewExponentialBackoff fills zero or out-of-range fields of cfg from
// DefaultConfig.
func NewExponentialBackoff(cfg Config) *ExponentialBackoff {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = def.Jitter
	}
	return &ExponentialBackoff{cfg: cfg}
}

func (p *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}

	delay := float64(p.cfg.InitialDelay) * math.Pow(p.cfg.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(p.cfg.MaxDelay))

	if p.cfg.Jitter > 0 {
		delay += (rand.Float64() - 0.5) * 2 * delay * p.cfg.Jitter
	}
	return time.Duration(math.Max(delay, 0))
}

func (p *ExponentialBackoff) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.cfg.MaxAttempts-1 {
		return false
	}
	if p.cfg.Retryable == nil {
		return true
	}
	return p.cfg.Retryable(err)
}

func (p *ExponentialBackoff) MaxAttempts() int {
	return p.cfg.MaxAttempts
}

// Executor runs operations under a Policy.
type Executor struct {
	policy  Policy
	onRetry func(attempt int, delay time.Duration, err error)
}

// NewExecutor creates an Executor. onRetry, if not nil, is called before
// each retry with the 1-indexed retry number.
func NewExecutor(policy Policy, onRetry func(attempt int, delay time.Duration, err error)) *Executor {
	if onRetry == nil {
		onRetry = func(int, time.Duration, error) {}
	}
	return &Executor{policy: policy, onRetry: onRetry}
}

// Execute calls operation until it succeeds, the policy gives up or ctx is
// done. The last operation error is returned.
func (e *Executor) Execute(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !e.policy.ShouldRetry(lastErr, attempt) {
			return lastErr
		}

		delay := e.policy.NextDelay(attempt)
		e.onRetry(attempt+1, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
