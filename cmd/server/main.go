package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/internal/api"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/internal/cache"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/config"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/metrics"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/resilience"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "resilience-core",
		Version:     version(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	// Initialize metrics
	m := metrics.NewMetrics(metrics.DefaultConfig())

	// Initialize the resilience handler with configured defaults
	handler := resilience.NewHandler(&resilience.HandlerConfig{
		MaxHistorySize:    cfg.Ledger.MaxHistorySize,
		CaptureStackTrace: cfg.Ledger.CaptureStackTrace,
		Metrics:           m,
	})
	resilience.SetDefault(handler)

	handler.RegisterCircuitBreaker(cache.ServiceName, resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
		HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
	})

	retryCfg := resilience.RetryConfig{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		BaseDelay:       cfg.Retry.BaseDelay,
		MaxDelay:        cfg.Retry.MaxDelay,
		ExponentialBase: cfg.Retry.ExponentialBase,
		Jitter:          cfg.Retry.Jitter,
	}

	// The cache is best-effort; a missing Redis downgrades the cache routes
	// instead of blocking startup.
	cacheClient, err := cache.NewClient(&cfg.Redis, retryCfg, handler)
	if err != nil {
		logger.Warn("Cache unavailable, starting without it", "error", err.Error())
		cacheClient = nil
	} else {
		defer cacheClient.Close()
		logger.Info("Cache connection established")
	}

	router := api.SetupRoutes(api.Deps{
		Config:  cfg,
		Logger:  logger,
		Handler: handler,
		Metrics: m,
		Cache:   cacheClient,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("Server exited")
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}
