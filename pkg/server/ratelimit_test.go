package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asciiarena/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	clearServerTestEnv()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func clearServerTestEnv() {
	for _, v := range []string{
		"SERVER_TCP_PORT", "SERVER_UDP_PORT", "PLAYERS_NUMBER", "MAP_SIZE",
		"WINNER_POINTS", "ARENA_WAITING", "SESSION_TIMEOUT", "LOG_LEVEL",
		"REQUEST_TIMEOUT", "RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS_PER_SECOND",
		"RATE_LIMIT_BURST", "RETRY_ENABLED", "ROSTER_PATH",
	} {
		t.Setenv(v, "")
	}
}

func TestRateLimiter_AllowsUpToBurst(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRequestsPerSecond = 1
	cfg.RateLimitBurst = 3

	rl := NewRateLimiter(cfg)
	defer rl.Close()

	allowed := 0
	for i := 0; i < 5; i++ {
		if rl.Allow("endpoint-a") {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestRateLimiter_SeparateEndpointsIndependent(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRequestsPerSecond = 1
	cfg.RateLimitBurst = 1

	rl := NewRateLimiter(cfg)
	defer rl.Close()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_ForgetResetsBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRequestsPerSecond = 1
	cfg.RateLimitBurst = 1

	rl := NewRateLimiter(cfg)
	defer rl.Close()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}
