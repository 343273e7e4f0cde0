// Package resilience protects calls to unreliable downstream services
// (search engines, vector stores, caches) from cascading failure. It
// composes a per-service circuit breaker, an error classification and
// history subsystem, retry with bounded exponential backoff, and pluggable
// fallback and recovery registries around a caller-supplied operation.
//
// # Guarding an operation
//
// The Handler is the composed entry point. It does not know what the
// operation does, only that it may fail and may be retried or substituted:
//
//	h := resilience.NewHandler(nil)
//	h.RegisterCircuitBreaker("es", resilience.DefaultCircuitBreakerConfig("es"))
//
//	result, err := h.Guard(ctx, "es", "search", func(ctx context.Context) (interface{}, error) {
//		return esClient.Search(ctx, query)
//	}, map[string]interface{}{"index": "documents"})
//
// # Circuit Breaker
//
// Each registered service gets its own Closed/Open/HalfOpen state machine.
// After FailureThreshold failures the circuit opens and calls are denied
// until RecoveryTimeout has elapsed; the breaker then admits up to
// HalfOpenMaxCalls trial calls and closes again after SuccessThreshold
// successes. Admission and trial-slot reservation happen atomically through
// Allow, so concurrent callers cannot over-admit trials.
//
// # Retry with Exponential Backoff
//
// GuardWithRetry runs the operation through a retry scheduler whose delay
// before attempt k is min(BaseDelay * ExponentialBase^(k-1), MaxDelay),
// optionally jittered. When every attempt fails, the last error is surfaced
// unchanged so it can still be classified:
//
//	result, err := h.GuardWithRetry(ctx, "vector-store", "upsert", op, nil,
//		resilience.DefaultRetryConfig())
//
// # Fallbacks and Recovery Hooks
//
//	h.RegisterFallback("es", func(ctx context.Context) (interface{}, error) {
//		return cachedResults, nil
//	})
//	h.RegisterRecoveryHook(errors.FaultConnection, func(rec resilience.ErrorRecord) bool {
//		return pool.Reconnect() == nil
//	})
//
// A fallback substitutes the guarded call when its breaker is open or the
// operation fails; recovery hooks attempt remediation after a failure is
// recorded and are strictly best-effort. Callers can always distinguish the
// outcome shapes: the operation's own error, CircuitOpenError, or
// FallbackFailedError.
//
// Every failure becomes an ErrorRecord in a bounded in-memory ledger with
// severity derived from a fixed fault-kind table; Stats exposes the
// aggregates together with breaker snapshots.
//
// The package is safe for concurrent use from any scheduling model: breaker
// and ledger bookkeeping never suspend, and only the guarded operation and
// the retry delay may block the calling goroutine.
package resilience
