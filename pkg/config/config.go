package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `json:"server"`
	Logging LoggingConfig `json:"logging"`
	Ledger  LedgerConfig  `json:"ledger"`
	Breaker BreakerConfig `json:"breaker"`
	Retry   RetryConfig   `json:"retry"`
	Redis   RedisConfig   `json:"redis"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// LedgerConfig contains error ledger configuration
type LedgerConfig struct {
	MaxHistorySize    int  `json:"max_history_size"`
	CaptureStackTrace bool `json:"capture_stack_trace"`
}

// BreakerConfig contains default circuit breaker configuration
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
	SuccessThreshold int           `json:"success_threshold"`
}

// RetryConfig contains default retry configuration
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts"`
	BaseDelay       time.Duration `json:"base_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	ExponentialBase float64       `json:"exponential_base"`
	Jitter          bool          `json:"jitter"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// Load loads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
		Ledger: LedgerConfig{
			MaxHistorySize:    getEnvInt("LEDGER_MAX_HISTORY_SIZE", 1000),
			CaptureStackTrace: getEnvBool("LEDGER_CAPTURE_STACK_TRACE", true),
		},
		Breaker: BreakerConfig{
			FailureThreshold: getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
			RecoveryTimeout:  getEnvDuration("BREAKER_RECOVERY_TIMEOUT", 60*time.Second),
			HalfOpenMaxCalls: getEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 3),
			SuccessThreshold: getEnvInt("BREAKER_SUCCESS_THRESHOLD", 2),
		},
		Retry: RetryConfig{
			MaxAttempts:     getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:       getEnvDuration("RETRY_BASE_DELAY", 100*time.Millisecond),
			MaxDelay:        getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
			ExponentialBase: getEnvFloat("RETRY_EXPONENTIAL_BASE", 2.0),
			Jitter:          getEnvBool("RETRY_JITTER", true),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if c.Ledger.MaxHistorySize < 1 {
		return fmt.Errorf("ledger max history size must be at least 1")
	}

	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure threshold must be at least 1")
	}

	if c.Breaker.HalfOpenMaxCalls < 1 {
		return fmt.Errorf("breaker half-open max calls must be at least 1")
	}

	if c.Breaker.SuccessThreshold < 1 {
		return fmt.Errorf("breaker success threshold must be at least 1")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}

	if c.Retry.ExponentialBase <= 1 {
		return fmt.Errorf("retry exponential base must be greater than 1")
	}

	return nil
}

// URL returns the Redis connection URL in the form redis.ParseURL accepts
func (r *RedisConfig) URL() string {
	if r.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", r.Password, r.Host, r.Port, r.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", r.Host, r.Port, r.DB)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
