package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()

	logger, err := NewLogger(&Config{
		Level:       "debug",
		Format:      "json",
		Output:      "stdout",
		ServiceName: "test-service",
		Version:     "1.0.0",
	})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return logger, buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&Config{Level: "loud", Format: "json", Output: "stdout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(&Config{Level: "info", Format: "xml", Output: "stdout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log format")
}

func TestNewLogger_NilConfigDefaults(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLogger_KeyValuePairs(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Info("operation guarded",
		"service", "search",
		"attempt", 2,
	)

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "operation guarded", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "search", entry["service"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, "1.0.0", entry["version"])
}

func TestLogger_DanglingKeyIsDropped(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Warn("odd pairs", "key1", "value1", "dangling")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "value1", entry["key1"])
	assert.NotContains(t, entry, "dangling")
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger(t)

	ctx := WithCorrelationID(context.Background(), "corr-123")
	ctx = WithRequestID(ctx, "req-456")

	logger.WithContext(ctx).Info("request handled")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "corr-123", entry["correlation_id"])
	assert.Equal(t, "req-456", entry["request_id"])
	assert.Equal(t, "test-service", entry["service"])
}

func TestLogger_WithError(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.WithError(errors.New("dial timeout")).Error("cache unreachable")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "dial timeout", entry["error"])
	assert.Equal(t, "*errors.errorString", entry["error_type"])
}

func TestLogger_WithComponent(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.WithComponent("breaker").Info("state changed")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "breaker", entry["component"])
}

func TestCorrelationIDHelpers(t *testing.T) {
	id := NewCorrelationID()
	assert.NotEmpty(t, id)
	assert.NotEqual(t, id, NewCorrelationID())

	ctx := WithCorrelationID(context.Background(), id)
	assert.Equal(t, id, GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetGlobalLogger(original)

	require.NotNil(t, original)

	replacement, err := NewLogger(&Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	SetGlobalLogger(replacement)
	assert.Same(t, replacement, GetLogger())
}
