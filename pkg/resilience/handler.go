package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/metrics"
)

// HandlerConfig holds configuration for the resilience handler
type HandlerConfig struct {
	// MaxHistorySize bounds the error ledger; non-positive values use
	// DefaultMaxHistorySize
	MaxHistorySize int
	// CaptureStackTrace enables stack capture on each recorded error
	CaptureStackTrace bool
	// Classifier overrides the default severity classifier
	Classifier *Classifier
	// Metrics receives advisory instrumentation; nil disables it
	Metrics *metrics.Metrics
}

// Handler composes the circuit breakers, error ledger, classifier, and the
// fallback and recovery registries around protected operations. It is the
// single entry point business call sites use to guard calls to unreliable
// downstream services.
type Handler struct {
	mutex    sync.RWMutex
	breakers map[string]*CircuitBreaker

	fallbacks  *FallbackRegistry
	recovery   *RecoveryRegistry
	classifier *Classifier
	ledger     *Ledger

	captureStack bool
	metrics      *metrics.Metrics
	logger       *logging.Logger
}

// Stats aggregates ledger statistics with breaker snapshots
type Stats struct {
	TotalErrors int               `json:"total_errors"`
	BySeverity  map[string]int    `json:"by_severity"`
	ByService   map[string]int    `json:"by_service"`
	ByFaultKind map[string]int    `json:"by_fault_kind"`
	Breakers    []BreakerSnapshot `json:"breakers"`
}

// NewHandler creates a new resilience handler. A nil config yields defaults:
// a 1000-record ledger, stack capture enabled, the default classifier, and no
// metrics.
func NewHandler(config *HandlerConfig) *Handler {
	if config == nil {
		config = &HandlerConfig{CaptureStackTrace: true}
	}

	classifier := config.Classifier
	if classifier == nil {
		classifier = NewClassifier()
	}

	return &Handler{
		breakers:     make(map[string]*CircuitBreaker),
		fallbacks:    NewFallbackRegistry(),
		recovery:     NewRecoveryRegistry(),
		classifier:   classifier,
		ledger:       NewLedger(config.MaxHistorySize),
		captureStack: config.CaptureStackTrace,
		metrics:      config.Metrics,
		logger:       logging.GetLogger(),
	}
}

// RegisterCircuitBreaker installs a breaker for a service name. Registering
// the same service again replaces the existing breaker.
func (h *Handler) RegisterCircuitBreaker(serviceName string, config CircuitBreakerConfig) {
	config.ServiceName = serviceName

	userOnStateChange := config.OnStateChange
	m := h.metrics
	config.OnStateChange = func(service string, from, to CircuitState) {
		m.RecordBreakerTransition(service, from.String(), to.String(), float64(to))
		if userOnStateChange != nil {
			userOnStateChange(service, from, to)
		}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.breakers[serviceName] = NewCircuitBreaker(config)
}

// RegisterFallback installs a substitute operation for a service name
func (h *Handler) RegisterFallback(serviceName string, fn Operation) {
	h.fallbacks.Register(serviceName, fn)
}

// RegisterRecoveryHook installs a remediation hook for a fault kind
func (h *Handler) RegisterRecoveryHook(kind apperrors.FaultKind, fn RecoveryHook) {
	h.recovery.Register(kind, fn)
}

// Breaker returns the breaker registered for a service name, if any
func (h *Handler) Breaker(serviceName string) (*CircuitBreaker, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	cb, ok := h.breakers[serviceName]
	return cb, ok
}

// Ledger returns the handler's error ledger
func (h *Handler) Ledger() *Ledger {
	return h.ledger
}

// Guard wraps one invocation of op with the full resilience pipeline: breaker
// admission, outcome recording, recovery hooks, and fallback degradation. The
// caller receives either op's result, the fallback's result, the operation's
// own error unchanged, a CircuitOpenError, or a FallbackFailedError.
func (h *Handler) Guard(ctx context.Context, serviceName, operationName string, op Operation, tags map[string]interface{}) (interface{}, error) {
	return h.guard(ctx, serviceName, operationName, op, tags)
}

// GuardWithRetry behaves like Guard but runs op through a retry scheduler.
// The breaker observes the final outcome of the whole retry sequence, not
// each individual attempt.
func (h *Handler) GuardWithRetry(ctx context.Context, serviceName, operationName string, op Operation, tags map[string]interface{}, retryConfig RetryConfig) (interface{}, error) {
	userOnRetry := retryConfig.OnRetry
	retryConfig.OnRetry = func(attempt int, err error, delay time.Duration) {
		h.metrics.RecordRetry(serviceName, operationName)
		if userOnRetry != nil {
			userOnRetry(attempt, err, delay)
		}
	}
	retrier := NewRetrier(retryConfig)

	return h.guard(ctx, serviceName, operationName, func(ctx context.Context) (interface{}, error) {
		return retrier.ExecuteWithResult(ctx, op)
	}, tags)
}

// Stats returns aggregate ledger statistics plus a snapshot of every
// registered breaker
func (h *Handler) Stats() Stats {
	ledgerStats := h.ledger.Stats()

	h.mutex.RLock()
	snapshots := make([]BreakerSnapshot, 0, len(h.breakers))
	for _, cb := range h.breakers {
		snapshots = append(snapshots, cb.Snapshot())
	}
	h.mutex.RUnlock()

	return Stats{
		TotalErrors: ledgerStats.TotalErrors,
		BySeverity:  ledgerStats.BySeverity,
		ByService:   ledgerStats.ByService,
		ByFaultKind: ledgerStats.ByFaultKind,
		Breakers:    snapshots,
	}
}

func (h *Handler) guard(ctx context.Context, serviceName, operationName string, invoke Operation, tags map[string]interface{}) (interface{}, error) {
	start := time.Now()

	breaker, hasBreaker := h.Breaker(serviceName)
	if hasBreaker && !breaker.Allow() {
		h.logger.Warn("Circuit breaker denied execution",
			"service", serviceName,
			"operation", operationName,
		)
		h.metrics.RecordGuardedOperation(serviceName, operationName, "rejected", time.Since(start))

		if fallback, ok := h.fallbacks.Lookup(serviceName); ok {
			return h.invokeFallback(ctx, serviceName, operationName, fallback)
		}
		return nil, &CircuitOpenError{ServiceName: serviceName}
	}

	result, err := func() (interface{}, error) {
		// A panicking operation must still count as a failure, otherwise a
		// reserved half-open trial slot leaks and the breaker can never leave
		// HalfOpen again.
		defer func() {
			if r := recover(); r != nil {
				if hasBreaker {
					breaker.RecordFailure()
				}
				h.metrics.RecordGuardedOperation(serviceName, operationName, "panic", time.Since(start))
				panic(r)
			}
		}()
		return invoke(ctx)
	}()
	if err == nil {
		if hasBreaker {
			breaker.RecordSuccess()
		}
		h.metrics.RecordGuardedOperation(serviceName, operationName, "success", time.Since(start))
		return result, nil
	}

	rec := h.buildRecord(ctx, err, serviceName, operationName, tags)
	h.ledger.Record(rec)
	h.metrics.RecordError(serviceName, string(rec.FaultKind), rec.Severity.String())

	if hasBreaker {
		breaker.RecordFailure()
	}

	h.logger.Error("Guarded operation failed",
		"service", serviceName,
		"operation", operationName,
		"fault_kind", string(rec.FaultKind),
		"severity", rec.Severity.String(),
		"error", err.Error(),
	)

	h.runRecoveryHook(rec)
	h.metrics.RecordGuardedOperation(serviceName, operationName, "failure", time.Since(start))

	if fallback, ok := h.fallbacks.Lookup(serviceName); ok {
		return h.invokeFallback(ctx, serviceName, operationName, fallback)
	}

	return nil, err
}

func (h *Handler) buildRecord(ctx context.Context, err error, serviceName, operationName string, tags map[string]interface{}) ErrorRecord {
	kind := apperrors.KindOf(err)

	recCtx := make(map[string]interface{}, len(tags)+1)
	for k, v := range tags {
		recCtx[k] = v
	}
	if correlationID := logging.GetCorrelationID(ctx); correlationID != "" {
		recCtx["correlation_id"] = correlationID
	}

	rec := ErrorRecord{
		ID:            uuid.New().String(),
		Timestamp:     time.Now(),
		FaultKind:     kind,
		Message:       err.Error(),
		Severity:      h.classifier.Classify(kind),
		ServiceName:   serviceName,
		OperationName: operationName,
		Context:       recCtx,
	}

	if h.captureStack {
		rec.StackTrace = captureStack()
	}

	return rec
}

// runRecoveryHook invokes the hook registered for the record's fault kind,
// once, best-effort. A failing or panicking hook is logged but never masks
// the original failure's propagation.
func (h *Handler) runRecoveryHook(rec ErrorRecord) {
	hook, ok := h.recovery.Lookup(rec.FaultKind)
	if !ok {
		return
	}

	resolved := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("Recovery hook panicked",
					"fault_kind", string(rec.FaultKind),
					"service", rec.ServiceName,
					"panic", r,
				)
			}
		}()
		resolved = hook(rec)
	}()

	h.ledger.MarkResolution(rec.ID, true, resolved)

	outcome := "unresolved"
	if resolved {
		outcome = "resolved"
	}
	h.metrics.RecordRecoveryHook(string(rec.FaultKind), outcome)

	h.logger.Debug("Recovery hook finished",
		"fault_kind", string(rec.FaultKind),
		"service", rec.ServiceName,
		"resolved", resolved,
	)
}

func (h *Handler) invokeFallback(ctx context.Context, serviceName, operationName string, fallback Operation) (interface{}, error) {
	result, err := fallback(ctx)
	if err != nil {
		h.metrics.RecordFallback(serviceName, "failure")
		h.logger.Error("Fallback failed",
			"service", serviceName,
			"operation", operationName,
			"error", err.Error(),
		)
		return nil, &FallbackFailedError{ServiceName: serviceName, Err: err}
	}

	h.metrics.RecordFallback(serviceName, "success")
	h.logger.Info("Fallback served degraded result",
		"service", serviceName,
		"operation", operationName,
	)
	return result, nil
}

// Process-wide default handler, lazily initialized. Explicitly constructed
// handlers injected at the composition root are preferred; this accessor
// exists for call sites that have no other way to reach one.
var (
	defaultHandler      *Handler
	defaultHandlerMutex sync.Mutex
)

// Default returns the process-wide handler, creating it on first use
func Default() *Handler {
	defaultHandlerMutex.Lock()
	defer defaultHandlerMutex.Unlock()

	if defaultHandler == nil {
		defaultHandler = NewHandler(nil)
	}
	return defaultHandler
}

// SetDefault replaces the process-wide handler
func SetDefault(h *Handler) {
	defaultHandlerMutex.Lock()
	defer defaultHandlerMutex.Unlock()
	defaultHandler = h
}
