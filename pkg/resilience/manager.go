// Package resilience provides a circuit breaker manager for coordinating multiple
// circuit breakers across different external dependencies.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CircuitBreakerManager manages multiple circuit breakers for different external dependencies
type CircuitBreakerManager struct {
	breakers map[string]*CircuitBreaker
	mu       sync.RWMutex
	logger   *logrus.Entry
}

// NewCircuitBreakerManager creates a new circuit breaker manager
func NewCircuitBreakerManager() *CircuitBreakerManager {
	return &CircuitBreakerManager{
		breakers: make(map[string]*CircuitBreaker),
		logger:   logrus.WithField("component", "CircuitBreakerManager"),
	}
}

// GetOrCreate gets an existing circuit breaker or creates a new one with the given configuration
func (cbm *CircuitBreakerManager) GetOrCreate(name string, config *CircuitBreakerConfig) *CircuitBreaker {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()

	if cb, exists := cbm.breakers[name]; exists {
		return cb
	}

	var cbConfig CircuitBreakerConfig
	if config != nil {
		cbConfig = *config
		cbConfig.Name = name
	} else {
		cbConfig = DefaultCircuitBreakerConfig(name)
	}

	cb := NewCircuitBreaker(cbConfig)
	cbm.breakers[name] = cb

	cbm.logger.WithField("circuit_breaker", name).Info("registered circuit breaker")
	return cb
}

// Get retrieves an existing circuit breaker by name
func (cbm *CircuitBreakerManager) Get(name string) (*CircuitBreaker, bool) {
	cbm.mu.RLock()
	defer cbm.mu.RUnlock()

	cb, exists := cbm.breakers[name]
	return cb, exists
}

// Remove removes a circuit breaker from the manager
func (cbm *CircuitBreakerManager) Remove(name string) {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()

	delete(cbm.breakers, name)
	cbm.logger.WithField("circuit_breaker", name).Info("removed circuit breaker")
}

// GetAllStats returns statistics for all managed circuit breakers
func (cbm *CircuitBreakerManager) GetAllStats() map[string]interface{} {
	cbm.mu.RLock()
	defer cbm.mu.RUnlock()

	stats := make(map[string]interface{})
	for name, cb := range cbm.breakers {
		stats[name] = cb.GetStats()
	}

	return stats
}

// ResetAll resets all circuit breakers to closed state
func (cbm *CircuitBreakerManager) ResetAll() {
	cbm.mu.RLock()
	defer cbm.mu.RUnlock()

	for name, cb := range cbm.breakers {
		cb.Reset()
		cbm.logger.WithField("circuit_breaker", name).Info("reset circuit breaker")
	}
}

// GetBreakerNames returns a list of all circuit breaker names
func (cbm *CircuitBreakerManager) GetBreakerNames() []string {
	cbm.mu.RLock()
	defer cbm.mu.RUnlock()

	names := make([]string, 0, len(cbm.breakers))
	for name := range cbm.breakers {
		names = append(names, name)
	}

	return names
}

// Predefined circuit breaker configurations, one per external-dependency
// boundary this server actually crosses.
var (
	// ReliableSendConfig guards the orchestrator's reliable (TCP) broadcast
	// sends: a handful of consecutive write failures (a stalled or dead
	// peer) trips it, with a short cooldown since the room composition
	// changes quickly.
	ReliableSendConfig = CircuitBreakerConfig{
		Name:        "reliable_send",
		MaxFailures: 3,
		Timeout:     10 * time.Second,
		MaxRequests: 2,
	}

	// DebugStreamConfig guards the optional spectator websocket stream.
	// It tolerates more failures before tripping and cools down longer,
	// since spectating is best-effort and a slow recovery here never
	// affects gameplay.
	DebugStreamConfig = CircuitBreakerConfig{
		Name:        "debug_stream",
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		MaxRequests: 3,
	}

	// ConfigLoaderConfig guards the roster YAML load at startup. A single
	// retry budget is enough; there is no point probing a config file that
	// isn't there.
	ConfigLoaderConfig = CircuitBreakerConfig{
		Name:        "config_loader",
		MaxFailures: 2,
		Timeout:     15 * time.Second,
		MaxRequests: 1,
	}
)

// Global circuit breaker manager instance with thread-safe initialization
var (
	globalCircuitBreakerManager *CircuitBreakerManager
	globalManagerOnce           sync.Once
)

func initGlobalManager() {
	globalCircuitBreakerManager = NewCircuitBreakerManager()
}

// GetGlobalCircuitBreakerManager returns the global circuit breaker manager instance.
func GetGlobalCircuitBreakerManager() *CircuitBreakerManager {
	globalManagerOnce.Do(initGlobalManager)
	return globalCircuitBreakerManager
}

// ExecuteWithReliableSendCircuitBreaker executes fn with the reliable-send circuit breaker
func ExecuteWithReliableSendCircuitBreaker(ctx context.Context, fn func(context.Context) error) error {
	cb := GetGlobalCircuitBreakerManager().GetOrCreate(ReliableSendConfig.Name, &ReliableSendConfig)
	return cb.Execute(ctx, fn)
}

// ExecuteWithDebugStreamCircuitBreaker executes fn with the spectator-stream circuit breaker
func ExecuteWithDebugStreamCircuitBreaker(ctx context.Context, fn func(context.Context) error) error {
	cb := GetGlobalCircuitBreakerManager().GetOrCreate(DebugStreamConfig.Name, &DebugStreamConfig)
	return cb.Execute(ctx, fn)
}

// ExecuteWithConfigLoaderCircuitBreaker executes fn with the roster-load circuit breaker
func ExecuteWithConfigLoaderCircuitBreaker(ctx context.Context, fn func(context.Context) error) error {
	cb := GetGlobalCircuitBreakerManager().GetOrCreate(ConfigLoaderConfig.Name, &ConfigLoaderConfig)
	return cb.Execute(ctx, fn)
}
