package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the resilience core
type Metrics struct {
	// Guarded call path metrics
	GuardedOperationsTotal   *prometheus.CounterVec
	GuardedOperationDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	BreakerState            *prometheus.GaugeVec
	BreakerTransitionsTotal *prometheus.CounterVec

	// Error and degradation metrics
	ErrorsRecordedTotal *prometheus.CounterVec
	FallbacksTotal      *prometheus.CounterVec
	RecoveryHooksTotal  *prometheus.CounterVec
	RetriesTotal        *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Subsystem string `json:"subsystem"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "resilience",
		Subsystem: "",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics. A disabled config
// returns an empty Metrics whose record methods are no-ops.
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &Metrics{}
	}

	m := &Metrics{
		GuardedOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "guarded_operations_total",
				Help:      "Total number of guarded operation invocations",
			},
			[]string{"service", "operation", "outcome"},
		),
		GuardedOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "guarded_operation_duration_seconds",
				Help:      "Guarded operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		BreakerTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "breaker_transitions_total",
				Help:      "Total number of circuit breaker state transitions",
			},
			[]string{"service", "from", "to"},
		),
		ErrorsRecordedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "errors_recorded_total",
				Help:      "Total number of errors recorded in the ledger",
			},
			[]string{"service", "fault_kind", "severity"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of fallback invocations",
			},
			[]string{"service", "outcome"},
		),
		RecoveryHooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "recovery_hooks_total",
				Help:      "Total number of recovery hook invocations",
			},
			[]string{"fault_kind", "outcome"},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "retries_total",
				Help:      "Total number of retry attempts",
			},
			[]string{"service", "operation"},
		),
	}

	prometheus.MustRegister(
		m.GuardedOperationsTotal,
		m.GuardedOperationDuration,
		m.BreakerState,
		m.BreakerTransitionsTotal,
		m.ErrorsRecordedTotal,
		m.FallbacksTotal,
		m.RecoveryHooksTotal,
		m.RetriesTotal,
	)

	return m
}

// RecordGuardedOperation records one guarded call and its duration
func (m *Metrics) RecordGuardedOperation(service, operation, outcome string, duration time.Duration) {
	if m == nil || m.GuardedOperationsTotal == nil {
		return
	}

	m.GuardedOperationsTotal.WithLabelValues(service, operation, outcome).Inc()
	m.GuardedOperationDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state transition
func (m *Metrics) RecordBreakerTransition(service, from, to string, stateValue float64) {
	if m == nil || m.BreakerTransitionsTotal == nil {
		return
	}

	m.BreakerTransitionsTotal.WithLabelValues(service, from, to).Inc()
	m.BreakerState.WithLabelValues(service).Set(stateValue)
}

// RecordError records an error appended to the ledger
func (m *Metrics) RecordError(service, faultKind, severity string) {
	if m == nil || m.ErrorsRecordedTotal == nil {
		return
	}

	m.ErrorsRecordedTotal.WithLabelValues(service, faultKind, severity).Inc()
}

// RecordFallback records a fallback invocation
func (m *Metrics) RecordFallback(service, outcome string) {
	if m == nil || m.FallbacksTotal == nil {
		return
	}

	m.FallbacksTotal.WithLabelValues(service, outcome).Inc()
}

// RecordRecoveryHook records a recovery hook invocation
func (m *Metrics) RecordRecoveryHook(faultKind, outcome string) {
	if m == nil || m.RecoveryHooksTotal == nil {
		return
	}

	m.RecoveryHooksTotal.WithLabelValues(faultKind, outcome).Inc()
}

// RecordRetry records one retry attempt
func (m *Metrics) RecordRetry(service, operation string) {
	if m == nil || m.RetriesTotal == nil {
		return
	}

	m.RetriesTotal.WithLabelValues(service, operation).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
