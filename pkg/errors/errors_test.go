package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(FaultValidation, "VALIDATION_ERROR", "name is required")
	assert.Equal(t, "VALIDATION_ERROR: name is required", err.Error())

	cause := errors.New("field empty")
	withCause := New(FaultValidation, "VALIDATION_ERROR", "name is required").WithCause(cause)
	assert.Equal(t, "VALIDATION_ERROR: name is required (caused by: field empty)", withCause.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewConnectionError("redis").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Nil(t, errors.Unwrap(New(FaultInternal, "INTERNAL_ERROR", "no cause")))
}

func TestAppError_WithDetail(t *testing.T) {
	err := NewExternalError("payments", "gateway rejected the charge").
		WithDetail("status", "502")

	assert.Equal(t, "payments", err.Details["service"])
	assert.Equal(t, "502", err.Details["status"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *AppError
		kind FaultKind
		code string
	}{
		{NewTimeoutError("query"), FaultTimeout, "TIMEOUT"},
		{NewConnectionError("redis"), FaultConnection, "CONNECTION_ERROR"},
		{NewUnavailableError("search"), FaultUnavailable, "SERVICE_UNAVAILABLE"},
		{NewRateLimitError("too many requests"), FaultRateLimit, "RATE_LIMIT_EXCEEDED"},
		{NewPermissionError("token expired"), FaultPermissionDenied, "PERMISSION_DENIED"},
		{NewValidationError("bad input"), FaultValidation, "VALIDATION_ERROR"},
		{NewNotFoundError("user"), FaultNotFound, "NOT_FOUND"},
		{NewConflictError("version mismatch"), FaultConflict, "CONFLICT"},
		{NewInternalError("invariant broken"), FaultInternal, "INTERNAL_ERROR"},
		{NewExternalError("payments", "gateway error"), FaultExternal, "EXTERNAL_SERVICE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestIsKind(t *testing.T) {
	err := NewTimeoutError("query")

	assert.True(t, IsKind(err, FaultTimeout))
	assert.False(t, IsKind(err, FaultConnection))
	assert.False(t, IsKind(errors.New("plain"), FaultTimeout))
	assert.False(t, IsKind(nil, FaultTimeout))
}

func TestIsKind_Wrapped(t *testing.T) {
	inner := NewNotFoundError("document")
	wrapped := fmt.Errorf("lookup failed: %w", inner)

	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsKind(wrapped, FaultNotFound))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, "TIMEOUT", GetCode(NewTimeoutError("query")))
	assert.Equal(t, "UNKNOWN_ERROR", GetCode(errors.New("plain")))
	assert.Equal(t, "UNKNOWN_ERROR", GetCode(nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, FaultTimeout, KindOf(NewTimeoutError("query")))
	assert.Equal(t, FaultUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, FaultUnknown, KindOf(nil))

	wrapped := fmt.Errorf("outer: %w", NewConflictError("version mismatch"))
	assert.Equal(t, FaultConflict, KindOf(wrapped))
}

func TestErrorsAs(t *testing.T) {
	err := error(NewRateLimitError("too many requests"))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, FaultRateLimit, appErr.Kind)
}
