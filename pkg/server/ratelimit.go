package server

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"asciiarena/pkg/config"
)

// RateLimiter throttles inbound messages per endpoint identity using a
// token bucket. Keyed by endpoint string (a reliable or fast endpoint id)
// rather than by client IP, since a single IP may hold both a TCP and a
// UDP identity for the same session.
type RateLimiter struct {
	mu sync.RWMutex

	limiters map[string]*rateLimiterEntry

	requestsPerSecond rate.Limit
	burst             int
	cleanupInterval   time.Duration
	maxAge            time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter builds a RateLimiter from cfg and starts its background
// cleanup goroutine.
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		limiters:          make(map[string]*rateLimiterEntry),
		requestsPerSecond: rate.Limit(cfg.RateLimitRequestsPerSecond),
		burst:             cfg.RateLimitBurst,
		cleanupInterval:   cfg.RateLimitCleanupInterval,
		maxAge:            cfg.RateLimitCleanupInterval * 5,
		ctx:               ctx,
		cancel:            cancel,
	}

	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a message from key should be processed, creating
// a fresh bucket for a key seen for the first time.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.requestsPerSecond, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[key] = entry
	} else {
		entry.lastAccess = time.Now()
	}

	return entry.limiter.Allow()
}

// Forget drops the bucket for key, called once its endpoint disconnects
// so a departed session's bucket doesn't linger until the next sweep.
func (rl *RateLimiter) Forget(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, key)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	var removed int
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > rl.maxAge {
			delete(rl.limiters, key)
			removed++
		}
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Debug("server: rate limiter cleanup")
	}
}

// Close stops the background cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.cancel()
}
