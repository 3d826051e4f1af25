// Package config provides configuration management for the arena server and
// client.
//
// This package handles environment variable loading with type-safe parsing,
// applies secure production defaults, and performs extensive validation of
// all configuration values.
//
// # Loading Configuration
//
// Configuration is loaded from environment variables:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variables
//
// Server settings:
//   - SERVER_TCP_PORT: reliable (TCP) listener port (default: 4500)
//   - SERVER_UDP_PORT: unreliable (UDP) listener port (default: 4501)
//   - LOG_LEVEL: Logging verbosity (default: "info")
//
// Game settings:
//   - PLAYERS_NUMBER: room capacity (default: 4)
//   - MAP_SIZE: arena width/height in tiles (default: 20)
//   - WINNER_POINTS: arena wins required to end a game (default: 3)
//   - ARENA_WAITING: countdown from PrepareArena to StartArena (default: 10s)
//   - ROSTER_PATH: optional YAML file of character template overrides
//
// Timeouts:
//   - SESSION_TIMEOUT: validated, not read by the server (default: 30m)
//   - REQUEST_TIMEOUT: validated, not read by the server (default: 30s)
//
// Rate limiting:
//   - RATE_LIMIT_ENABLED: enable inbound rate limiting (default: true)
//   - RATE_LIMIT_REQUESTS_PER_SECOND: requests per second per endpoint (default: 30)
//   - RATE_LIMIT_BURST: burst allowance (default: 10)
//
// Retry policy:
//   - RETRY_MAX_ATTEMPTS: Maximum attempts, including the first (default: 3)
//   - RETRY_INITIAL_DELAY: First retry delay (default: 100ms)
//   - RETRY_MAX_DELAY: Maximum retry delay (default: 5s)
//   - RETRY_BACKOFF_MULTIPLIER: Backoff factor (default: 2.0)
//
// # Validation
//
// All configuration values are validated on load:
//   - Ports must be in valid range (1-65535) and distinct
//   - Timeouts must meet minimum requirements
//   - Room/arena sizing must be able to seat a match
//   - Rate limit and retry values must be positive and sensible
//
// # Retry Configuration
//
// GetRetryConfig returns a retry.RetryConfig that can be used directly
// with the retry package:
//
//	retryConfig := cfg.GetRetryConfig()
//	retrier := retry.NewRetrier(retryConfig)
package config
