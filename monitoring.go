package nqcrypt

import "github.com/hengadev/nqcrypt/internal/monitoring"

type (
	MetricsCollector  = monitoring.MetricsCollector
	ObservabilityHook = monitoring.ObservabilityHook
	StructuredLogger  = monitoring.StructuredLogger
	LoggerConfig      = monitoring.LoggerConfig

	NoOpMetricsCollector       = monitoring.NoOpMetricsCollector
	InMemoryMetricsCollector   = monitoring.InMemoryMetricsCollector
	NoOpObservabilityHook      = monitoring.NoOpObservabilityHook
	LoggingObservabilityHook   = monitoring.LoggingObservabilityHook
	MetricsObservabilityHook   = monitoring.MetricsObservabilityHook
	CompositeObservabilityHook = monitoring.CompositeObservabilityHook
)

var (
	NewStructuredLogger           = monitoring.NewStructuredLogger
	NewProductionLogger           = monitoring.NewProductionLogger
	NewDevelopmentLogger          = monitoring.NewDevelopmentLogger
	NewInMemoryMetricsCollector   = monitoring.NewInMemoryMetricsCollector
	NewLoggingObservabilityHook   = monitoring.NewLoggingObservabilityHook
	NewMetricsObservabilityHook   = monitoring.NewMetricsObservabilityHook
	NewCompositeObservabilityHook = monitoring.NewCompositeObservabilityHook

	// ContextWithRequestID tags ctx so pipeline log records carry the ID.
	ContextWithRequestID = monitoring.ContextWithRequestID
	RequestIDFromContext = monitoring.RequestIDFromContext
)

// Pipeline metric names.
const (
	MetricProtectCount    = "nqc.protect.count"
	MetricProtectBytes    = "nqc.protect.bytes"
	MetricProtectDuration = "nqc.protect.duration"
	MetricRecoverCount    = "nqc.recover.count"
	MetricRecoverBytes    = "nqc.recover.bytes"
	MetricRecoverDuration = "nqc.recover.duration"
	MetricUnwrapFallback  = "nqc.unwrap.fallback"
)
