package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration
	// ExponentialBase is the multiplier for exponential backoff
	ExponentialBase float64
	// Jitter scales each delay by a uniform random factor in [0.5, 1.0]
	// to avoid thundering herd
	Jitter bool
	// RetryableErrors determines whether an error is retryable; nil retries
	// every error
	RetryableErrors func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// Retrier executes operations with bounded exponential backoff
type Retrier struct {
	config RetryConfig
	logger *logging.Logger
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(config RetryConfig) *Retrier {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.ExponentialBase <= 1 {
		config.ExponentialBase = 2.0
	}

	return &Retrier{
		config: config,
		logger: logging.GetLogger(),
	}
}

// Execute runs the operation up to MaxAttempts times. When all attempts fail
// the last error is surfaced unchanged so callers can still classify it. The
// inter-attempt delay suspends only the calling goroutine and is cancellable
// through ctx.
func (r *Retrier) Execute(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("Operation succeeded after retry",
					"attempt", attempt,
					"max_attempts", r.config.MaxAttempts,
				)
			}
			return nil
		}

		lastErr = err

		if r.config.RetryableErrors != nil && !r.config.RetryableErrors(err) {
			r.logger.Debug("Error is not retryable, stopping",
				"error", err.Error(),
				"attempt", attempt,
			)
			return err
		}

		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt)

		r.logger.Debug("Operation failed, retrying",
			"error", err.Error(),
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"delay", delay,
		)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logger.Error("Operation failed after all retry attempts",
		"error", lastErr.Error(),
		"attempts", r.config.MaxAttempts,
	)

	return lastErr
}

// ExecuteWithResult runs the operation with retry logic and returns its result
func (r *Retrier) ExecuteWithResult(ctx context.Context, operation func(context.Context) (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := r.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	return result, err
}

// delayFor computes the backoff delay after a failed attempt:
// min(BaseDelay * ExponentialBase^(attempt-1), MaxDelay), optionally scaled by
// a uniform jitter factor in [0.5, 1.0].
func (r *Retrier) delayFor(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.ExponentialBase, float64(attempt-1))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	if r.config.Jitter {
		delay *= 0.5 + rand.Float64()*0.5
	}

	return time.Duration(delay)
}
