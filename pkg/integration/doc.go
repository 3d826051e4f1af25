// Package integration combines circuit breaker and retry patterns for comprehensive
// fault tolerance in the arena server's networking and configuration loading.
//
// This package provides ResilientExecutor which layers retry logic on top of
// circuit breaker protection, giving operations the benefits of both mechanisms:
// automatic retries for transient failures and fast-fail for persistent outages.
//
// # Execution Flow
//
// When executing an operation:
//
//  1. The retrier starts an attempt
//  2. The circuit breaker checks if that attempt should proceed
//  3. If the circuit is open, the attempt fails immediately with ErrCircuitBreakerOpen
//  4. Otherwise the operation runs, and the circuit breaker records success/failure
//  5. On failure the retrier backs off and tries again, up to its attempt budget
//
// # Creating Executors
//
// Create a custom executor with specific configuration:
//
//	cbConfig := resilience.CircuitBreakerConfig{
//	    Name:        "my-service",
//	    MaxFailures: 5,
//	    Timeout:     30 * time.Second,
//	}
//	retryConfig := retry.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	}
//	executor := integration.NewResilientExecutor(cbConfig, retryConfig)
//
// # Executing Operations
//
// Wrap operations with combined protection:
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callExternalAPI(ctx)
//	})
//
// # Pre-configured Executors
//
// Global executors, one per external-dependency boundary this server
// actually crosses:
//
//	// Reliable-channel (TCP) broadcast sends
//	err := integration.ExecuteReliableSend(ctx, operation)
//
//	// Optional spectator websocket stream
//	err := integration.ExecuteDebugStream(ctx, operation)
//
//	// Roster YAML loading at startup
//	err := integration.ExecuteConfigOperation(ctx, operation)
//
// # Ad-hoc Execution
//
// For one-off operations with custom options:
//
//	err := integration.ExecuteResilient(ctx, operation,
//	    integration.ConfigureRetry(retryConfig),
//	    integration.ConfigureCircuitBreaker(cbConfig),
//	)
//
// # Disabling Mechanisms
//
// Build an executor with only one protection mechanism:
//
//	// Retry only, no circuit breaker
//	err := integration.WithRetryDisabled(cbConfig).Execute(ctx, operation)
//
//	// Circuit breaker only, no retry
//	err := integration.WithCircuitBreakerDisabled(retryConfig).Execute(ctx, operation)
//
// # Statistics
//
// Query the circuit breaker's statistics (the retrier keeps none):
//
//	stats := executor.GetStats()
//	// Contains circuit_breaker_name, circuit_breaker_state, and related keys
package integration
