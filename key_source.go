package nqcrypt

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hengadev/nqcrypt/internal/reliability"
)

// StaticKeySource returns a fixed key.
type StaticKeySource []byte

func (s StaticKeySource) MasterKey(ctx context.Context) ([]byte, error) {
	if len(s) == 0 {
		return nil, NewNotFoundError("master key", "static")
	}
	return bytes.Clone(s), nil
}

// HexKeySource decodes a hex-encoded key. Surrounding whitespace is ignored.
type HexKeySource string

func (s HexKeySource) MasterKey(ctx context.Context) ([]byte, error) {
	trimmed := strings.TrimSpace(string(s))
	if trimmed == "" {
		return nil, NewNotFoundError("master key", "hex")
	}
	key, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid hex: %w", ErrInvalidConfiguration, err)
	}
	return key, nil
}

// NewPipelineFromKeySource loads the master key from src and builds a Pipeline.
func NewPipelineFromKeySource(ctx context.Context, src KeySource, opts ...PipelineOption) (*Pipeline, error) {
	key, err := src.MasterKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	p, err := New(key, opts...)
	if err != nil {
		return nil, err
	}
	p.hook.OnKeyOperation(ctx, "load", len(key), nil)
	return p, nil
}

// RetryingKeySource retries a remote KeySource while it reports
// ErrKeySourceUnavailable. Other errors are returned at once.
type RetryingKeySource struct {
	src      KeySource
	executor *reliability.Executor
}

// NewRetryingKeySource wraps src with up to attempts tries and exponential
// backoff starting at initialDelay. Retries are logged as warnings when
// logger is not nil.
func NewRetryingKeySource(src KeySource, attempts int, initialDelay time.Duration, logger *StructuredLogger) *RetryingKeySource {
	policy := reliability.NewExponentialBackoff(reliability.Config{
		MaxAttempts:  attempts,
		InitialDelay: initialDelay,
		Retryable:    IsRetryableError,
	})

	var onRetry func(int, time.Duration, error)
	if logger != nil {
		onRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("master key load failed, retrying",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err.Error(),
			)
		}
	}

	return &RetryingKeySource{src: src, executor: reliability.NewExecutor(policy, onRetry)}
}

func (r *RetryingKeySource) MasterKey(ctx context.Context) ([]byte, error) {
	var key []byte
	err := r.executor.Execute(ctx, func(ctx context.Context) error {
		k, err := r.src.MasterKey(ctx)
		if err != nil {
			return err
		}
		key = k
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}
