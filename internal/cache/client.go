package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/config"
	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/logging"
	"github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/resilience"
)

// ServiceName identifies the cache in breaker registrations and error records
const ServiceName = "cache"

// Client is a Redis-backed cache whose operations run through the resilience
// handler. The cache is best-effort: when its circuit is open, reads degrade
// to misses and writes are dropped instead of failing the caller. Transient
// failures are retried per the supplied retry configuration.
type Client struct {
	rdb     *redis.Client
	handler *resilience.Handler
	retry   resilience.RetryConfig
	logger  *logging.Logger
}

// NewClient creates a cache client and registers a circuit breaker for it
// unless the handler already carries one for ServiceName.
func NewClient(cfg *config.RedisConfig, retry resilience.RetryConfig, handler *resilience.Handler) (*Client, error) {
	if cfg == nil {
		return nil, apperrors.NewValidationError("Redis configuration is required")
	}
	if handler == nil {
		handler = resilience.Default()
	}

	opts, err := redis.ParseURL(cfg.URL())
	if err != nil {
		return nil, apperrors.NewValidationError("invalid Redis configuration").WithCause(err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, apperrors.NewConnectionError(ServiceName).WithCause(err)
	}

	if _, ok := handler.Breaker(ServiceName); !ok {
		handler.RegisterCircuitBreaker(ServiceName, resilience.DefaultCircuitBreakerConfig(ServiceName))
	}

	return &Client{
		rdb:     rdb,
		handler: handler,
		retry:   retry,
		logger:  logging.GetLogger(),
	}, nil
}

// Get retrieves a value by key. The second return value reports whether the
// key was present; an open circuit reads as a miss.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := c.handler.GuardWithRetry(ctx, ServiceName, "get", func(ctx context.Context) (interface{}, error) {
		val, err := c.rdb.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// A miss is a normal outcome, not a fault to record.
				return nil, nil
			}
			return nil, wrapRedisError("get", err)
		}
		return val, nil
	}, map[string]interface{}{"key": key}, c.retry)

	if err != nil {
		if resilience.IsCircuitOpen(err) {
			c.logger.Debug("Cache read degraded to miss, circuit open", "key", key)
			return "", false, nil
		}
		return "", false, err
	}

	if result == nil {
		return "", false, nil
	}
	return result.(string), true, nil
}

// Set stores a value with the given TTL. Writes are dropped silently while
// the cache circuit is open.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := c.handler.GuardWithRetry(ctx, ServiceName, "set", func(ctx context.Context) (interface{}, error) {
		if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
			return nil, wrapRedisError("set", err)
		}
		return nil, nil
	}, map[string]interface{}{"key": key}, c.retry)

	if err != nil && resilience.IsCircuitOpen(err) {
		c.logger.Debug("Cache write dropped, circuit open", "key", key)
		return nil
	}
	return err
}

// Delete removes a key. Deletes are dropped silently while the cache circuit
// is open.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.handler.GuardWithRetry(ctx, ServiceName, "delete", func(ctx context.Context) (interface{}, error) {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return nil, wrapRedisError("delete", err)
		}
		return nil, nil
	}, map[string]interface{}{"key": key}, c.retry)

	if err != nil && resilience.IsCircuitOpen(err) {
		c.logger.Debug("Cache delete dropped, circuit open", "key", key)
		return nil
	}
	return err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return apperrors.NewUnavailableError(ServiceName).WithCause(err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// wrapRedisError maps Redis failures onto fault kinds so the classifier and
// recovery hooks see meaningful categories instead of driver internals.
func wrapRedisError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(fmt.Sprintf("cache %s", operation)).WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError(fmt.Sprintf("cache %s", operation)).WithCause(err)
	}
	return apperrors.NewExternalError(ServiceName, fmt.Sprintf("cache %s failed", operation)).WithCause(err)
}
