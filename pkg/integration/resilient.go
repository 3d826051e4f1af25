// Package integration combines retry and circuit breaker patterns into a
// single resilience policy for each of the server's external-dependency
// boundaries: reliable-channel sends, the optional spectator stream, and
// roster file loading.
package integration

import (
	"context"

	"asciiarena/pkg/resilience"
	"asciiarena/pkg/retry"

	"github.com/sirupsen/logrus"
)

// ResilientExecutor combines circuit breaker and retry patterns for maximum resilience
type ResilientExecutor struct {
	circuitBreaker *resilience.CircuitBreaker
	retrier        *retry.Retrier
	logger         *logrus.Entry
}

// NewResilientExecutor creates a new executor combining circuit breaker and retry patterns
func NewResilientExecutor(cbConfig resilience.CircuitBreakerConfig, retryConfig retry.RetryConfig) *ResilientExecutor {
	return &ResilientExecutor{
		circuitBreaker: resilience.NewCircuitBreaker(cbConfig),
		retrier:        retry.NewRetrier(retryConfig),
		logger:         logrus.WithField("component", "ResilientExecutor"),
	}
}

// Execute runs an operation with both circuit breaker and retry protection.
// The circuit breaker wraps each individual attempt, so while it is open
// every attempt fails at once with ErrCircuitBreakerOpen without calling
// operation. The retrier still backs off between those attempts until its
// attempt budget is spent.
func (re *ResilientExecutor) Execute(ctx context.Context, operation func(context.Context) error) error {
	breakerGuarded := func(ctx context.Context) error {
		return re.circuitBreaker.Execute(ctx, operation)
	}

	return re.retrier.Execute(ctx, breakerGuarded)
}

// GetStats returns the circuit breaker's statistics, each key prefixed with
// "circuit_breaker_". The retrier keeps no statistics.
func (re *ResilientExecutor) GetStats() map[string]interface{} {
	stats := make(map[string]interface{})

	for key, value := range re.circuitBreaker.GetStats() {
		stats["circuit_breaker_"+key] = value
	}

	return stats
}

// Resilience policies for this server's three external-dependency
// boundaries. Each pairs a circuit breaker tuned to how tolerant that
// boundary can afford to be with a matching retry schedule.
var (
	// ReliableSendExecutor protects the orchestrator's reliable-channel
	// (TCP) broadcast sends — the fan-out from the event loop to sessions.
	ReliableSendExecutor = NewResilientExecutor(
		resilience.ReliableSendConfig,
		retry.ReliableSendRetryConfig(),
	)

	// DebugStreamExecutor protects the optional debug/spectator websocket
	// stream. It must never stall a tick broadcast, so its retry schedule
	// is short and its circuit breaker tolerates more noise before opening.
	DebugStreamExecutor = NewResilientExecutor(
		resilience.DebugStreamConfig,
		retry.DebugStreamRetryConfig(),
	)

	// ConfigLoaderExecutor carries the retry schedule for the roster YAML
	// load performed once at startup. ExecuteConfigOperation pairs that
	// schedule with the global manager's "config_loader" circuit breaker
	// rather than with this executor's own breaker.
	ConfigLoaderExecutor = NewResilientExecutor(
		resilience.ConfigLoaderConfig,
		retry.RosterLoadRetryConfig(),
	)
)

// ExecuteReliableSend runs a reliable-channel send with full resilience.
func ExecuteReliableSend(ctx context.Context, operation func(context.Context) error) error {
	return ReliableSendExecutor.Execute(ctx, operation)
}

// ExecuteDebugStream runs a spectator-stream write with full resilience.
func ExecuteDebugStream(ctx context.Context, operation func(context.Context) error) error {
	return DebugStreamExecutor.Execute(ctx, operation)
}

// ExecuteConfigOperation runs a roster-load operation with full resilience.
// Each attempt goes through the global manager's "config_loader" circuit
// breaker, so removing or resetting that breaker in the manager takes
// effect here.
func ExecuteConfigOperation(ctx context.Context, operation func(context.Context) error) error {
	return ConfigLoaderExecutor.retrier.Execute(ctx, func(ctx context.Context) error {
		return resilience.ExecuteWithConfigLoaderCircuitBreaker(ctx, operation)
	})
}

// CreateCustomExecutor creates a resilient executor with custom configuration
func CreateCustomExecutor(cbName string, cbConfig resilience.CircuitBreakerConfig, retryConfig retry.RetryConfig) *ResilientExecutor {
	cbConfig.Name = cbName
	return NewResilientExecutor(cbConfig, retryConfig)
}

// WithRetryDisabled creates a resilient executor that only uses circuit breaker
func WithRetryDisabled(cbConfig resilience.CircuitBreakerConfig) *ResilientExecutor {
	noRetryConfig := retry.RetryConfig{
		MaxAttempts:       1,
		InitialDelay:      0,
		MaxDelay:          0,
		BackoffMultiplier: 1.0,
		JitterMaxPercent:  0,
		RetryableErrors:   []error{},
	}
	return NewResilientExecutor(cbConfig, noRetryConfig)
}

// WithCircuitBreakerDisabled creates a resilient executor that only uses retry
func WithCircuitBreakerDisabled(retryConfig retry.RetryConfig) *ResilientExecutor {
	alwaysClosedConfig := resilience.CircuitBreakerConfig{
		Name:        "disabled",
		MaxFailures: 999999,
		Timeout:     0,
		MaxRequests: 999999,
	}
	return NewResilientExecutor(alwaysClosedConfig, retryConfig)
}

// ExecuteResilient is a convenience function for ad-hoc resilient operations
// that don't fit one of the three named boundaries above.
func ExecuteResilient(ctx context.Context, operation func(context.Context) error, options ...func(*ResilientExecutor)) error {
	executor := NewResilientExecutor(
		resilience.DefaultCircuitBreakerConfig("ad_hoc"),
		retry.DefaultRetryConfig(),
	)

	for _, option := range options {
		option(executor)
	}

	return executor.Execute(ctx, operation)
}

// ConfigureRetry is an option function to customize retry behavior
func ConfigureRetry(config retry.RetryConfig) func(*ResilientExecutor) {
	return func(re *ResilientExecutor) {
		re.retrier = retry.NewRetrier(config)
	}
}

// ConfigureCircuitBreaker is an option function to customize circuit breaker behavior
func ConfigureCircuitBreaker(config resilience.CircuitBreakerConfig) func(*ResilientExecutor) {
	return func(re *ResilientExecutor) {
		re.circuitBreaker = resilience.NewCircuitBreaker(config)
	}
}

// Example usage:
//
//	err := integration.ExecuteReliableSend(ctx, func(ctx context.Context) error {
//	    return session.SendReliable(frame)
//	})
