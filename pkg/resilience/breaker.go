package resilience

import (
	"sync"
	"time"

	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed - circuit is closed, calls are allowed
	StateClosed CircuitState = iota
	// StateOpen - circuit is open, calls are rejected
	StateOpen
	// StateHalfOpen - circuit is half-open, a limited number of trial calls are allowed
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for one circuit breaker instance
type CircuitBreakerConfig struct {
	// ServiceName of the protected downstream service, for logging/metrics
	ServiceName string
	// FailureThreshold is the number of failures in the closed state
	// before the circuit opens
	FailureThreshold int
	// RecoveryTimeout is the minimum time the circuit stays open before a
	// half-open trial is allowed
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls is the number of trial calls permitted while half-open
	HalfOpenMaxCalls int
	// SuccessThreshold is the number of successes required while half-open
	// before the circuit closes again
	SuccessThreshold int
	// OnStateChange is called whenever the state of the circuit breaker changes
	OnStateChange func(serviceName string, from CircuitState, to CircuitState)
}

// DefaultCircuitBreakerConfig returns a circuit breaker configuration with
// conservative defaults for the given service
func DefaultCircuitBreakerConfig(serviceName string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		ServiceName:      serviceName,
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		HalfOpenMaxCalls: 3,
		SuccessThreshold: 2,
	}
}

// BreakerSnapshot is a point-in-time copy of a breaker's observable state
type BreakerSnapshot struct {
	ServiceName       string    `json:"service_name"`
	State             string    `json:"state"`
	FailureCount      int       `json:"failure_count"`
	LastFailureTime   time.Time `json:"last_failure_time"`
	HalfOpenCalls     int       `json:"half_open_calls"`
	HalfOpenSuccesses int       `json:"half_open_successes"`
}

// CircuitBreaker gates calls to one named downstream service. All methods are
// safe under concurrent invocation and never return errors themselves, so
// breaker bookkeeping can never become the source of a new outage.
type CircuitBreaker struct {
	serviceName      string
	failureThreshold int
	recoveryTimeout  time.Duration
	halfOpenMaxCalls int
	successThreshold int
	onStateChange    func(serviceName string, from CircuitState, to CircuitState)

	mutex             sync.Mutex
	state             CircuitState
	failureCount      int
	lastFailureTime   time.Time
	halfOpenCalls     int
	halfOpenSuccesses int

	logger *logging.Logger
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
// Thresholds below 1 are raised to 1 and a zero recovery timeout falls back to
// 60 seconds, so a zero-valued config still yields a working breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 1
	}
	if config.HalfOpenMaxCalls < 1 {
		config.HalfOpenMaxCalls = 1
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 1
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}

	return &CircuitBreaker{
		serviceName:      config.ServiceName,
		failureThreshold: config.FailureThreshold,
		recoveryTimeout:  config.RecoveryTimeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		successThreshold: config.SuccessThreshold,
		onStateChange:    config.OnStateChange,
		state:            StateClosed,
		logger:           logging.GetLogger(),
	}
}

// ServiceName returns the name of the protected service
func (cb *CircuitBreaker) ServiceName() string {
	return cb.serviceName
}

// CanExecute reports whether a call may proceed. While open, the first call
// after the recovery timeout has elapsed performs the transition to half-open.
// While half-open, callers that receive true must reserve their trial slot via
// RecordCall before invoking the operation; Allow does both atomically.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.canExecuteLocked(time.Now())
}

// RecordCall reserves a trial slot while half-open. Calls in other states are
// no-ops.
func (cb *CircuitBreaker) RecordCall() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenCalls < cb.halfOpenMaxCalls {
		cb.halfOpenCalls++
	}
}

// Allow combines CanExecute and RecordCall under one lock so that concurrent
// callers cannot together admit more than HalfOpenMaxCalls trial calls.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.canExecuteLocked(time.Now()) {
		return false
	}

	if cb.state == StateHalfOpen {
		cb.halfOpenCalls++
	}
	return true
}

// RecordSuccess records a successful outcome for an admitted call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.successThreshold {
			cb.setStateLocked(StateClosed, time.Now())
		}
	}
	// A success reported while open belongs to a previous state epoch and is
	// ignored; counters only move monotonically within an epoch.
}

// RecordFailure records a failed outcome for an admitted call
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := time.Now()
	cb.lastFailureTime = now

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.setStateLocked(StateOpen, now)
		}
	case StateHalfOpen:
		cb.setStateLocked(StateOpen, now)
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Snapshot returns a copy of the breaker's observable state
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return BreakerSnapshot{
		ServiceName:       cb.serviceName,
		State:             cb.state.String(),
		FailureCount:      cb.failureCount,
		LastFailureTime:   cb.lastFailureTime,
		HalfOpenCalls:     cb.halfOpenCalls,
		HalfOpenSuccesses: cb.halfOpenSuccesses,
	}
}

// canExecuteLocked evaluates admission and performs the open to half-open
// transition. Callers must hold cb.mutex.
func (cb *CircuitBreaker) canExecuteLocked(now time.Time) bool {
	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if now.Sub(cb.lastFailureTime) > cb.recoveryTimeout {
			cb.setStateLocked(StateHalfOpen, now)
			return cb.halfOpenCalls < cb.halfOpenMaxCalls
		}
		return false
	case StateHalfOpen:
		return cb.halfOpenCalls < cb.halfOpenMaxCalls
	default:
		return false
	}
}

// setStateLocked applies a state transition and its entry effects. Callers
// must hold cb.mutex.
func (cb *CircuitBreaker) setStateLocked(state CircuitState, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state

	switch state {
	case StateClosed:
		cb.failureCount = 0
		cb.halfOpenCalls = 0
		cb.halfOpenSuccesses = 0
	case StateOpen:
		cb.lastFailureTime = now
	case StateHalfOpen:
		cb.halfOpenCalls = 0
		cb.halfOpenSuccesses = 0
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.serviceName, prev, state)
	}

	cb.logger.Info("Circuit breaker state changed",
		"service", cb.serviceName,
		"from", prev.String(),
		"to", state.String(),
		"failure_count", cb.failureCount,
	)
}
