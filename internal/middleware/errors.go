package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/resilience"
)

// ErrorHandler maps errors attached to the gin context onto HTTP status
// codes, so upstream callers can distinguish "breaker denied" from "the
// operation itself failed" without understanding breaker internals.
func ErrorHandler(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := StatusFor(err)

		logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
			"error":       err.Error(),
			"http_status": status,
			"http_path":   c.Request.URL.Path,
		}).Error("Request failed")

		c.JSON(status, gin.H{
			"code":           codeFor(err),
			"message":        err.Error(),
			"correlation_id": logging.GetCorrelationID(c.Request.Context()),
		})
	}
}

// StatusFor returns the HTTP status for a resilience error kind
func StatusFor(err error) int {
	if resilience.IsCircuitOpen(err) || resilience.IsFallbackFailed(err) {
		return http.StatusServiceUnavailable
	}

	switch apperrors.KindOf(err) {
	case apperrors.FaultTimeout:
		return http.StatusGatewayTimeout
	case apperrors.FaultRateLimit:
		return http.StatusTooManyRequests
	case apperrors.FaultNotFound:
		return http.StatusNotFound
	case apperrors.FaultValidation:
		return http.StatusBadRequest
	case apperrors.FaultPermissionDenied:
		return http.StatusForbidden
	case apperrors.FaultConflict:
		return http.StatusConflict
	case apperrors.FaultUnavailable, apperrors.FaultConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	if resilience.IsCircuitOpen(err) {
		return "CIRCUIT_OPEN"
	}
	if resilience.IsFallbackFailed(err) {
		return "FALLBACK_FAILED"
	}
	return apperrors.GetCode(err)
}

// Recovery recovers from handler panics and answers with a generic 500
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
			"panic": recovered,
		}).Error("Request panic recovered")

		c.JSON(http.StatusInternalServerError, gin.H{
			"code":           "INTERNAL_ERROR",
			"message":        "internal server error",
			"correlation_id": logging.GetCorrelationID(c.Request.Context()),
		})
	})
}
