package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 1000, cfg.Ledger.MaxHistorySize)
	assert.True(t, cfg.Ledger.CaptureStackTrace)

	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.Breaker.RecoveryTimeout)
	assert.Equal(t, 3, cfg.Breaker.HalfOpenMaxCalls)
	assert.Equal(t, 2, cfg.Breaker.SuccessThreshold)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.ExponentialBase)
	assert.True(t, cfg.Retry.Jitter)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LEDGER_MAX_HISTORY_SIZE", "250")
	t.Setenv("LEDGER_CAPTURE_STACK_TRACE", "false")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "10")
	t.Setenv("BREAKER_RECOVERY_TIMEOUT", "5s")
	t.Setenv("RETRY_EXPONENTIAL_BASE", "1.5")
	t.Setenv("RETRY_JITTER", "false")
	t.Setenv("REDIS_HOST", "cache.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250, cfg.Ledger.MaxHistorySize)
	assert.False(t, cfg.Ledger.CaptureStackTrace)
	assert.Equal(t, 10, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 5*time.Second, cfg.Breaker.RecoveryTimeout)
	assert.Equal(t, 1.5, cfg.Retry.ExponentialBase)
	assert.False(t, cfg.Retry.Jitter)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("LEDGER_MAX_HISTORY_SIZE", "not-a-number")
	t.Setenv("BREAKER_RECOVERY_TIMEOUT", "soon")
	t.Setenv("RETRY_JITTER", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Ledger.MaxHistorySize)
	assert.Equal(t, 60*time.Second, cfg.Breaker.RecoveryTimeout)
	assert.True(t, cfg.Retry.Jitter)
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure threshold")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  ServerConfig{Port: 8080},
		Ledger:  LedgerConfig{MaxHistorySize: 100},
		Breaker: BreakerConfig{FailureThreshold: 5, HalfOpenMaxCalls: 3, SuccessThreshold: 2},
		Retry:   RetryConfig{MaxAttempts: 3, ExponentialBase: 2.0},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero history size", func(c *Config) { c.Ledger.MaxHistorySize = 0 }},
		{"zero failure threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }},
		{"zero half-open max calls", func(c *Config) { c.Breaker.HalfOpenMaxCalls = 0 }},
		{"zero success threshold", func(c *Config) { c.Breaker.SuccessThreshold = 0 }},
		{"zero max attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"exponential base of one", func(c *Config) { c.Retry.ExponentialBase = 1.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRedisURL(t *testing.T) {
	redisCfg := RedisConfig{Host: "localhost", Port: 6379, DB: 0}
	assert.Equal(t, "redis://localhost:6379/0", redisCfg.URL())

	redisCfg.Password = "secret"
	redisCfg.DB = 2
	assert.Equal(t, "redis://:secret@localhost:6379/2", redisCfg.URL())
}
