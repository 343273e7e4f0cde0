package errors

import (
	"errors"
	"fmt"
	"time"
)

// FaultKind identifies the concrete kind of a fault. Kinds drive severity
// classification and recovery hook lookup in the resilience core.
type FaultKind string

const (
	FaultTimeout          FaultKind = "timeout"
	FaultConnection       FaultKind = "connection"
	FaultUnavailable      FaultKind = "unavailable"
	FaultRateLimit        FaultKind = "rate_limit"
	FaultPermissionDenied FaultKind = "permission_denied"
	FaultValidation       FaultKind = "validation"
	FaultNotFound         FaultKind = "not_found"
	FaultConflict         FaultKind = "conflict"
	FaultInternal         FaultKind = "internal"
	FaultExternal         FaultKind = "external"
	FaultUnknown          FaultKind = "unknown"
)

// AppError represents an application error with context
type AppError struct {
	Kind      FaultKind         `json:"kind"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Cause     error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new application error
func New(kind FaultKind, code, message string) *AppError {
	return &AppError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Details:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Common error constructors
func NewTimeoutError(operation string) *AppError {
	return New(FaultTimeout, "TIMEOUT", fmt.Sprintf("%s timed out", operation))
}

func NewConnectionError(service string) *AppError {
	return New(FaultConnection, "CONNECTION_ERROR", fmt.Sprintf("failed to connect to %s", service)).
		WithDetail("service", service)
}

func NewUnavailableError(service string) *AppError {
	return New(FaultUnavailable, "SERVICE_UNAVAILABLE", fmt.Sprintf("%s is unavailable", service)).
		WithDetail("service", service)
}

func NewRateLimitError(message string) *AppError {
	return New(FaultRateLimit, "RATE_LIMIT_EXCEEDED", message)
}

func NewPermissionError(message string) *AppError {
	return New(FaultPermissionDenied, "PERMISSION_DENIED", message)
}

func NewValidationError(message string) *AppError {
	return New(FaultValidation, "VALIDATION_ERROR", message)
}

func NewNotFoundError(resource string) *AppError {
	return New(FaultNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource))
}

func NewConflictError(message string) *AppError {
	return New(FaultConflict, "CONFLICT", message)
}

func NewInternalError(message string) *AppError {
	return New(FaultInternal, "INTERNAL_ERROR", message)
}

func NewExternalError(service, message string) *AppError {
	return New(FaultExternal, "EXTERNAL_SERVICE_ERROR", message).
		WithDetail("service", service)
}

// IsKind checks if the error is of a specific fault kind
func IsKind(err error, kind FaultKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// IsNotFound checks if the error indicates a missing resource
func IsNotFound(err error) bool {
	return IsKind(err, FaultNotFound)
}

// GetCode returns the error code if it's an AppError
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// KindOf returns the fault kind of an error. Plain errors without an AppError
// in their chain map to FaultUnknown so classification stays total.
func KindOf(err error) FaultKind {
	if err == nil {
		return FaultUnknown
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return FaultUnknown
}
