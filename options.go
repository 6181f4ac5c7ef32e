package nqcrypt

import (
	"fmt"
	"io"
)

type PipelineOption func(p *Pipeline) error

// WithFeedbackMode selects the feedback rule used by Protect. Recover always
// follows the mode recorded in the container header.
func WithFeedbackMode(mode FeedbackMode) PipelineOption {
	return func(p *Pipeline) error {
		if !mode.Valid() {
			return fmt.Errorf("%w: unknown feedback mode %s", ErrInvalidConfiguration, mode)
		}
		p.mode = mode
		return nil
	}
}

// WithRandom replaces crypto/rand as the source of salts and generated
// master keys.
func WithRandom(r io.Reader) PipelineOption {
	return func(p *Pipeline) error {
		if r == nil {
			return fmt.Errorf("%w: random source cannot be nil", ErrInvalidConfiguration)
		}
		p.random = r
		return nil
	}
}

func WithLogger(logger *StructuredLogger) PipelineOption {
	return func(p *Pipeline) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfiguration)
		}
		p.logger = logger
		return nil
	}
}

func WithObservabilityHook(hook ObservabilityHook) PipelineOption {
	return func(p *Pipeline) error {
		if hook == nil {
			return fmt.Errorf("%w: observability hook cannot be nil", ErrInvalidConfiguration)
		}
		p.hook = hook
		return nil
	}
}

func WithMetricsCollector(collector MetricsCollector) PipelineOption {
	return func(p *Pipeline) error {
		if collector == nil {
			return fmt.Errorf("%w: metrics collector cannot be nil", ErrInvalidConfiguration)
		}
		p.metrics = collector
		return nil
	}
}
