package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/resilience"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.NewLogger(&logging.Config{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	})
	require.NoError(t, err)

	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(RequestLogging(logger))
	router.Use(ErrorHandler(logger))
	return router
}

func performRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"circuit open", &resilience.CircuitOpenError{ServiceName: "search"}, http.StatusServiceUnavailable},
		{"fallback failed", &resilience.FallbackFailedError{ServiceName: "search", Err: errors.New("down")}, http.StatusServiceUnavailable},
		{"timeout", apperrors.NewTimeoutError("query"), http.StatusGatewayTimeout},
		{"rate limit", apperrors.NewRateLimitError("slow down"), http.StatusTooManyRequests},
		{"not found", apperrors.NewNotFoundError("user"), http.StatusNotFound},
		{"validation", apperrors.NewValidationError("bad input"), http.StatusBadRequest},
		{"permission denied", apperrors.NewPermissionError("no access"), http.StatusForbidden},
		{"conflict", apperrors.NewConflictError("stale version"), http.StatusConflict},
		{"unavailable", apperrors.NewUnavailableError("search"), http.StatusBadGateway},
		{"connection", apperrors.NewConnectionError("redis"), http.StatusBadGateway},
		{"internal", apperrors.NewInternalError("broken"), http.StatusInternalServerError},
		{"plain error", errors.New("something"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusFor(tt.err))
		})
	}
}

func TestErrorHandler_MapsAttachedError(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/search", func(c *gin.Context) {
		c.Error(&resilience.CircuitOpenError{ServiceName: "search"})
	})

	w := performRequest(router, "/search")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CIRCUIT_OPEN", body["code"])
	assert.NotEmpty(t, body["correlation_id"])
}

func TestErrorHandler_AppErrorCode(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/users", func(c *gin.Context) {
		c.Error(apperrors.NewNotFoundError("user"))
	})

	w := performRequest(router, "/users")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestErrorHandler_NoErrorPassesThrough(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := performRequest(router, "/ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRecovery_HandlerPanic(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/panic", func(c *gin.Context) {
		panic("handler gone wrong")
	})

	w := performRequest(router, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestRequestLogging_CorrelationHeaders(t *testing.T) {
	router := newTestRouter(t)

	var seenCorrelationID string
	router.GET("/echo", func(c *gin.Context) {
		seenCorrelationID = logging.GetCorrelationID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := performRequest(router, "/echo")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Correlation-ID"), seenCorrelationID)
}

func TestRequestLogging_HonorsIncomingCorrelationID(t *testing.T) {
	router := newTestRouter(t)
	router.GET("/echo", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("X-Correlation-ID", "corr-from-upstream")
	router.ServeHTTP(w, req)

	assert.Equal(t, "corr-from-upstream", w.Header().Get("X-Correlation-ID"))
}
