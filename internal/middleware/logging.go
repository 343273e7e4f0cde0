package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
)

// RequestLogging creates a middleware for request logging with correlation IDs
func RequestLogging(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = logging.NewCorrelationID()
		}
		requestID := logging.NewCorrelationID()

		ctx := logging.WithCorrelationID(c.Request.Context(), correlationID)
		ctx = logging.WithRequestID(ctx, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Correlation-ID", correlationID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		duration := time.Since(start)
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"http_method":      c.Request.Method,
			"http_path":        c.Request.URL.Path,
			"http_status":      c.Writer.Status(),
			"client_ip":        c.ClientIP(),
			"response_time_ms": duration.Milliseconds(),
		}).Info("HTTP request processed")
	}
}
