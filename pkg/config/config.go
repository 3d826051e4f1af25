// Package config provides configuration management for the arena server and
// client. It handles environment variable loading, validation, and provides
// secure defaults for production deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"asciiarena/pkg/retry"

	"github.com/sirupsen/logrus"
)

// Config represents the server configuration with environment variable support.
// All configuration values can be set via environment variables or will use
// secure defaults appropriate for production deployment.
// Config is thread-safe; all field access should be done through getter methods
// when used concurrently, or by holding the mutex directly.
type Config struct {
	// mu provides thread-safe access to configuration fields when the Config
	// instance is shared across goroutines. Use RLock for reads and Lock for writes.
	mu sync.RWMutex `json:"-"`

	// ServerTCPPort is the port the reliable (TCP) listener binds to.
	ServerTCPPort int `json:"server_tcp_port"`

	// ServerUDPPort is the port the unreliable (UDP) listener binds to.
	ServerUDPPort int `json:"server_udp_port"`

	// PlayersNumber is the number of named slots a room holds before it is full.
	PlayersNumber int `json:"players_number"`

	// MapSize is the width and height, in tiles, of each generated arena.
	MapSize int `json:"map_size"`

	// WinnerPoints is the number of arena wins required to end a game.
	WinnerPoints int `json:"winner_points"`

	// ArenaWaiting is the countdown between an arena's PrepareArena
	// broadcast and its StartArena.
	ArenaWaiting time.Duration `json:"arena_waiting"`

	// SessionTimeout is validated and exposed through SessionTimeoutDuration.
	// The server does not read it: a ghosted session (one whose reliable
	// endpoint disconnected mid-game) is kept until the room is cleared.
	SessionTimeout time.Duration `json:"session_timeout"`

	// LogLevel controls the logging verbosity (debug, info, warn, error)
	LogLevel string `json:"log_level"`

	// RequestTimeout is validated but not read by the server; its accepts,
	// reads and reliable sends carry no deadline from it.
	RequestTimeout time.Duration `json:"request_timeout"`

	// Performance monitoring configuration

	// EnableProfiling enables the debug HTTP endpoint (metrics, health and
	// spectator websocket). It does not enable pprof.
	EnableProfiling bool `json:"enable_profiling"`

	// ProfilingPort is the port for the debug HTTP server. It is used only
	// when EnableProfiling is set; 0 then binds an OS-chosen port.
	ProfilingPort int `json:"profiling_port"`

	// MetricsInterval is loaded but not read by the server; its metrics are
	// updated as events happen, not on an interval.
	MetricsInterval time.Duration `json:"metrics_interval"`

	// Rate limiting configuration

	// RateLimitEnabled enables per-endpoint inbound rate limiting.
	RateLimitEnabled bool `json:"rate_limit_enabled"`

	// RateLimitRequestsPerSecond is the number of requests allowed per second per endpoint
	RateLimitRequestsPerSecond float64 `json:"rate_limit_requests_per_second"`

	// RateLimitBurst is the maximum number of requests allowed in a burst per endpoint
	RateLimitBurst int `json:"rate_limit_burst"`

	// RateLimitCleanupInterval is how often to clean up expired rate limiters
	RateLimitCleanupInterval time.Duration `json:"rate_limit_cleanup_interval"`

	// Retry configuration

	// RetryEnabled turns on validation of the Retry* fields below, which
	// feed GetRetryConfig. The server's reliable sends do not read them;
	// they always use the retry package's reliable-send preset.
	RetryEnabled bool `json:"retry_enabled"`

	// RetryMaxAttempts is the maximum number of retry attempts (including initial attempt)
	RetryMaxAttempts int `json:"retry_max_attempts"`

	// RetryInitialDelay is the initial delay before the first retry
	RetryInitialDelay time.Duration `json:"retry_initial_delay"`

	// RetryMaxDelay is the maximum delay between retries
	RetryMaxDelay time.Duration `json:"retry_max_delay"`

	// RetryBackoffMultiplier is the multiplier for exponential backoff (typically 2.0)
	RetryBackoffMultiplier float64 `json:"retry_backoff_multiplier"`

	// RetryJitterPercent is the maximum percentage of jitter to add (0-100)
	RetryJitterPercent int `json:"retry_jitter_percent"`

	// RosterPath, if set, points at a YAML file of character template
	// overrides layered onto the built-in roster.
	RosterPath string `json:"roster_path"`

	// Server lifecycle timeouts

	// ShutdownTimeout is the maximum duration for graceful server shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// ShutdownGracePeriod is the grace period after shutdown before forcing exit
	ShutdownGracePeriod time.Duration `json:"shutdown_grace_period"`
}

// Load creates a new Config instance by reading from environment variables
// and applying secure defaults. It validates all configuration values and
// returns an error if any required values are missing or invalid.
func Load() (*Config, error) {
	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"package":  "config",
	}).Debug("entering Load")

	config := &Config{
		// Secure defaults for production deployment
		ServerTCPPort:  getEnvAsInt("SERVER_TCP_PORT", 4500),
		ServerUDPPort:  getEnvAsInt("SERVER_UDP_PORT", 4501),
		PlayersNumber:  getEnvAsInt("PLAYERS_NUMBER", 4),
		MapSize:        getEnvAsInt("MAP_SIZE", 20),
		WinnerPoints:   getEnvAsInt("WINNER_POINTS", 3),
		ArenaWaiting:   getEnvAsDuration("ARENA_WAITING", 10*time.Second),
		SessionTimeout: getEnvAsDuration("SESSION_TIMEOUT", 30*time.Minute),
		LogLevel:       getEnvAsString("LOG_LEVEL", "info"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),

		// Performance monitoring defaults
		EnableProfiling: getEnvAsBool("ENABLE_PROFILING", false),              // Disabled by default for security
		ProfilingPort:   getEnvAsInt("PROFILING_PORT", 0),                     // 0 = OS-chosen port when profiling is enabled
		MetricsInterval: getEnvAsDuration("METRICS_INTERVAL", 30*time.Second), // Not read by the server

		// Rate limiting defaults
		RateLimitEnabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),                       // Enabled by default; this is an authoritative game server
		RateLimitRequestsPerSecond: getEnvAsFloat64("RATE_LIMIT_REQUESTS_PER_SECOND", 30),          // 30 requests per second default
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),                            // 10 requests burst default
		RateLimitCleanupInterval:   getEnvAsDuration("RATE_LIMIT_CLEANUP_INTERVAL", 1*time.Minute), // 1 minute cleanup interval

		// Retry defaults
		RetryEnabled:           getEnvAsBool("RETRY_ENABLED", true),                           // Enabled by default
		RetryMaxAttempts:       getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),                          // 3 attempts default
		RetryInitialDelay:      getEnvAsDuration("RETRY_INITIAL_DELAY", 100*time.Millisecond), // 100ms initial delay
		RetryMaxDelay:          getEnvAsDuration("RETRY_MAX_DELAY", 5*time.Second),            // 5s max delay
		RetryBackoffMultiplier: getEnvAsFloat64("RETRY_BACKOFF_MULTIPLIER", 2.0),              // 2.0 backoff multiplier
		RetryJitterPercent:     getEnvAsInt("RETRY_JITTER_PERCENT", 10),                       // 10% jitter

		RosterPath: getEnvAsString("ROSTER_PATH", ""),

		// Server lifecycle timeout defaults
		ShutdownTimeout:     getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),     // 30s shutdown timeout
		ShutdownGracePeriod: getEnvAsDuration("SHUTDOWN_GRACE_PERIOD", 1*time.Second), // 1s grace period
	}

	logrus.WithFields(logrus.Fields{
		"function":        "Load",
		"package":         "config",
		"server_tcp_port": config.ServerTCPPort,
		"server_udp_port": config.ServerUDPPort,
		"log_level":       config.LogLevel,
	}).Debug("configuration loaded, starting validation")

	// Validate configuration
	if err := config.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"package":  "config",
			"error":    err,
		}).Error("configuration validation failed")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":        "Load",
		"package":         "config",
		"server_tcp_port": config.ServerTCPPort,
		"server_udp_port": config.ServerUDPPort,
		"log_level":       config.LogLevel,
	}).Debug("exiting Load - configuration successfully loaded and validated")

	return config, nil
}

// validate checks that all configuration values are valid and consistent.
// validate performs comprehensive configuration validation with multiple checks.
// This method coordinates validation of all configuration sections including
// server settings, timeouts, rate limiting, and retry policies.
func (c *Config) validate() error {
	if err := c.validateServerSettings(); err != nil {
		return err
	}

	if err := c.validateTimeouts(); err != nil {
		return err
	}

	if err := c.validateGameSettings(); err != nil {
		return err
	}

	if err := c.validateRateLimitConfig(); err != nil {
		return err
	}

	if err := c.validateRetryConfig(); err != nil {
		return err
	}

	return nil
}

// validateServerSettings checks listener ports and log level configuration.
// Ensures both ports are within valid range (1-65535), distinct, and that
// the log level is one of the supported values (debug, info, warn, error).
func (c *Config) validateServerSettings() error {
	if c.ServerTCPPort < 1 || c.ServerTCPPort > 65535 {
		return fmt.Errorf("server tcp port must be between 1 and 65535, got %d", c.ServerTCPPort)
	}
	if c.ServerUDPPort < 1 || c.ServerUDPPort > 65535 {
		return fmt.Errorf("server udp port must be between 1 and 65535, got %d", c.ServerUDPPort)
	}
	if c.ServerTCPPort == c.ServerUDPPort {
		return fmt.Errorf("server tcp port and udp port must differ, both got %d", c.ServerTCPPort)
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, level := range validLogLevels {
		if strings.ToLower(c.LogLevel) == level {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("log level must be one of %v, got %s", validLogLevels, c.LogLevel)
	}

	return nil
}

// validateTimeouts ensures timeout values meet minimum requirements.
// Session timeout must be at least 1 minute and request timeout must be
// at least 1 second to prevent performance issues.
func (c *Config) validateTimeouts() error {
	if c.SessionTimeout < time.Minute {
		return fmt.Errorf("session timeout must be at least 1 minute, got %v", c.SessionTimeout)
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request timeout must be at least 1 second, got %v", c.RequestTimeout)
	}

	if c.ArenaWaiting < time.Second {
		return fmt.Errorf("arena waiting must be at least 1 second, got %v", c.ArenaWaiting)
	}

	return nil
}

// validateGameSettings checks the room and arena sizing knobs.
// Player count and map size must be large enough to seat at least two
// combatants with room to maneuver, and a game must require at least one
// win to end.
func (c *Config) validateGameSettings() error {
	if c.PlayersNumber < 2 {
		return fmt.Errorf("players number must be at least 2, got %d", c.PlayersNumber)
	}
	if c.MapSize < 3 {
		return fmt.Errorf("map size must be at least 3, got %d", c.MapSize)
	}
	if c.WinnerPoints < 1 {
		return fmt.Errorf("winner points must be at least 1, got %d", c.WinnerPoints)
	}

	return nil
}

// validateRateLimitConfig ensures rate limiting parameters are valid when enabled.
// Checks that requests per second and burst values are positive numbers
// to prevent division by zero and ensure meaningful rate limiting.
func (c *Config) validateRateLimitConfig() error {
	if c.RateLimitEnabled {
		if c.RateLimitRequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests per second must be greater than 0 when rate limiting is enabled")
		}
		if c.RateLimitBurst <= 0 {
			return fmt.Errorf("rate limit burst must be greater than 0 when rate limiting is enabled")
		}
	}

	return nil
}

// validateRetryConfig ensures retry policy parameters are valid when enabled.
// Validates attempt counts, delay values, backoff multiplier, and jitter
// percentage to ensure retry behavior functions as expected.
func (c *Config) validateRetryConfig() error {
	if c.RetryEnabled {
		if c.RetryMaxAttempts < 1 {
			return fmt.Errorf("retry max attempts must be at least 1 when retry is enabled")
		}
		if c.RetryInitialDelay < 0 {
			return fmt.Errorf("retry initial delay must be non-negative when retry is enabled")
		}
		if c.RetryMaxDelay < c.RetryInitialDelay {
			return fmt.Errorf("retry max delay must be greater than or equal to initial delay when retry is enabled")
		}
		if c.RetryBackoffMultiplier <= 1.0 {
			return fmt.Errorf("retry backoff multiplier must be greater than 1.0 when retry is enabled")
		}
		if c.RetryJitterPercent < 0 || c.RetryJitterPercent > 100 {
			return fmt.Errorf("retry jitter percent must be between 0 and 100 when retry is enabled")
		}
	}

	return nil
}

// SessionTimeoutDuration returns the configured session timeout. It is
// thread-safe and exists alongside the exported field so callers sharing a
// *Config across goroutines have a locked accessor available.
func (c *Config) SessionTimeoutDuration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SessionTimeout
}

// GetRetryConfig creates a retry.RetryConfig from the current configuration.
// This converts the application-level retry settings into the format expected
// by the retry package. The returned configuration can be used directly with
// retry.NewRetrier() to create a retrier instance.
func (c *Config) GetRetryConfig() retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts:       c.RetryMaxAttempts,
		InitialDelay:      c.RetryInitialDelay,
		MaxDelay:          c.RetryMaxDelay,
		BackoffMultiplier: c.RetryBackoffMultiplier,
		JitterMaxPercent:  c.RetryJitterPercent,
		RetryableErrors:   []error{}, // Will use default error classification
	}
}

// Helper functions for environment variable parsing with type safety and defaults

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
