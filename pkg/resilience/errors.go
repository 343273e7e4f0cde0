package resilience

import (
	"errors"
	"fmt"
)

// CircuitOpenError is returned by Guard when a breaker denies execution and
// no fallback is registered for the service.
type CircuitOpenError struct {
	ServiceName string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker for service '%s' is open", e.ServiceName)
}

// IsCircuitOpen checks if an error is a circuit-open denial
func IsCircuitOpen(err error) bool {
	var coErr *CircuitOpenError
	return errors.As(err, &coErr)
}

// FallbackFailedError is returned when the substitute operation for a service
// itself failed. No further degradation path exists past this point.
type FallbackFailedError struct {
	ServiceName string
	Err         error
}

func (e *FallbackFailedError) Error() string {
	return fmt.Sprintf("fallback for service '%s' failed: %v", e.ServiceName, e.Err)
}

// Unwrap returns the fallback's own error
func (e *FallbackFailedError) Unwrap() error {
	return e.Err
}

// IsFallbackFailed checks if an error is a failed fallback
func IsFallbackFailed(err error) bool {
	var ffErr *FallbackFailedError
	return errors.As(err, &ffErr)
}
