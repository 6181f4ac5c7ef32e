package monitoring

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// ObservabilityHook receives pipeline lifecycle events. Metadata never
// contains key material.
type ObservabilityHook interface {
	// Called before protect or recover starts
	OnProcessStart(ctx context.Context, operation string, metadata map[string]any)

	// Called after the operation completes, successfully or not
	OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any)

	// Called when an error is returned or a fallback is substituted
	OnError(ctx context.Context, operation string, err error, metadata map[string]any)

	// Called for each key wrap, unwrap or load
	OnKeyOperation(ctx context.Context, operation string, keyLen int, metadata map[string]any)
}

// NoOpObservabilityHook ignores every event.
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnKeyOperation(ctx context.Context, operation string, keyLen int, metadata map[string]any) {
}

// LoggingObservabilityHook writes every event to a StructuredLogger.
type LoggingObservabilityHook struct {
	logger *StructuredLogger
}

// NewLoggingObservabilityHook creates a hook logging to logger, or to a
// production logger when logger is nil.
func NewLoggingObservabilityHook(logger *StructuredLogger) *LoggingObservabilityHook {
	if logger == nil {
		logger = NewProductionLogger("hooks")
	}
	return &LoggingObservabilityHook{logger: logger}
}

func (l *LoggingObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	l.logger.WithContext(ctx).WithFields(metadata).Debug("operation started: %s", operation)
}

func (l *LoggingObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	l.logger.LogCryptoOperation(ctx, operation, duration, err, metadata)
}

func (l *LoggingObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	l.logger.WithContext(ctx).WithFields(metadata).Error("operation error: %s: %v", operation, err)
}

func (l *LoggingObservabilityHook) OnKeyOperation(ctx context.Context, operation string, keyLen int, metadata map[string]any) {
	l.logger.LogKeyOperation(ctx, operation, keyLen, metadata)
}

// Metric names emitted by MetricsObservabilityHook.
const (
	MetricProcessStarted   = "nqc.process.started"
	MetricProcessSucceeded = "nqc.process.succeeded"
	MetricProcessFailed    = "nqc.process.failed"
	MetricProcessDuration  = "nqc.process.duration"
	MetricErrors           = "nqc.errors"
	MetricKeyOperations    = "nqc.key_operations"
)

// MetricsObservabilityHook turns events into counters and timings.
type MetricsObservabilityHook struct {
	collector MetricsCollector
}

// NewMetricsObservabilityHook creates a new metrics observability hook
func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	if collector == nil {
		collector = &NoOpMetricsCollector{}
	}
	return &MetricsObservabilityHook{collector: collector}
}

func (m *MetricsObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	m.collector.IncrementCounter(MetricProcessStarted, map[string]string{"operation": operation})
}

func (m *MetricsObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	tags := map[string]string{"operation": operation}

	if err != nil {
		tags["status"] = "error"
		m.collector.IncrementCounter(MetricProcessFailed, tags)
	} else {
		tags["status"] = "success"
		m.collector.IncrementCounter(MetricProcessSucceeded, tags)
	}

	m.collector.RecordTiming(MetricProcessDuration, duration, tags)
}

func (m *MetricsObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	m.collector.IncrementCounter(MetricErrors, map[string]string{
		"operation": operation,
		"error":     fmt.Sprintf("%T", err),
	})
}

func (m *MetricsObservabilityHook) OnKeyOperation(ctx context.Context, operation string, keyLen int, metadata map[string]any) {
	m.collector.IncrementCounter(MetricKeyOperations, map[string]string{
		"operation":  operation,
		"key_length": strconv.Itoa(keyLen),
	})
}

// CompositeObservabilityHook fans events out to several hooks in order.
type CompositeObservabilityHook struct {
	hooks []ObservabilityHook
}

// NewCompositeObservabilityHook skips nil hooks.
func NewCompositeObservabilityHook(hooks ...ObservabilityHook) *CompositeObservabilityHook {
	kept := make([]ObservabilityHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return &CompositeObservabilityHook{hooks: kept}
}

func (c *CompositeObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessStart(ctx, operation, metadata)
	}
}

func (c *CompositeObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessComplete(ctx, operation, duration, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnError(ctx, operation, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnKeyOperation(ctx context.Context, operation string, keyLen int, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnKeyOperation(ctx, operation, keyLen, metadata)
	}
}
