package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/internal/cache"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/internal/middleware"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/config"
	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/metrics"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/resilience"
)

// Deps holds the dependencies the API surface needs. The cache client is
// optional; cache routes answer 503 when it is absent.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Handler *resilience.Handler
	Metrics *metrics.Metrics
	Cache   *cache.Client
}

// SetupRoutes builds the gin router with the full middleware chain and the
// operational endpoints: health, metrics, resilience introspection, and a
// guarded cache surface.
func SetupRoutes(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogging(deps.Logger))
	router.Use(middleware.ErrorHandler(deps.Logger))

	router.GET("/health", healthHandler(deps))
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		res := v1.Group("/resilience")
		{
			res.GET("/stats", statsHandler(deps.Handler))
			res.GET("/errors", errorsHandler(deps.Handler))
		}

		c := v1.Group("/cache")
		{
			c.GET("/:key", cacheGetHandler(deps))
			c.PUT("/:key", cacheSetHandler(deps))
			c.DELETE("/:key", cacheDeleteHandler(deps))
		}
	}

	return router
}

func healthHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}
		healthy := true

		if deps.Cache != nil {
			if err := deps.Cache.Health(c.Request.Context()); err != nil {
				checks["cache"] = "unhealthy"
				healthy = false
			} else {
				checks["cache"] = "healthy"
			}
		} else {
			checks["cache"] = "disabled"
		}

		status := http.StatusOK
		overall := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	}
}

func statsHandler(h *resilience.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.Stats())
	}
}

func errorsHandler(h *resilience.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				c.Error(apperrors.NewValidationError("limit must be a positive integer"))
				return
			}
			limit = parsed
		}

		c.JSON(http.StatusOK, gin.H{
			"errors": h.Ledger().Recent(limit),
		})
	}
}

func cacheGetHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Cache == nil {
			c.Error(apperrors.NewUnavailableError(cache.ServiceName))
			return
		}

		key := c.Param("key")
		value, found, err := deps.Cache.Get(c.Request.Context(), key)
		if err != nil {
			c.Error(err)
			return
		}
		if !found {
			c.Error(apperrors.NewNotFoundError(key))
			return
		}

		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
	}
}

func cacheSetHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Cache == nil {
			c.Error(apperrors.NewUnavailableError(cache.ServiceName))
			return
		}

		var body struct {
			Value string `json:"value" binding:"required"`
			TTL   string `json:"ttl"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(apperrors.NewValidationError("value is required").WithCause(err))
			return
		}

		ttl := time.Hour
		if body.TTL != "" {
			parsed, err := time.ParseDuration(body.TTL)
			if err != nil {
				c.Error(apperrors.NewValidationError("ttl must be a duration like 30s or 1h"))
				return
			}
			ttl = parsed
		}

		key := c.Param("key")
		if err := deps.Cache.Set(c.Request.Context(), key, body.Value, ttl); err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"key": key})
	}
}

func cacheDeleteHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Cache == nil {
			c.Error(apperrors.NewUnavailableError(cache.ServiceName))
			return
		}

		key := c.Param("key")
		if err := deps.Cache.Delete(c.Request.Context(), key); err != nil {
			c.Error(err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
