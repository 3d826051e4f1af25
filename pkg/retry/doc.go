// Package retry provides configurable retry mechanisms with exponential backoff.
//
// This package handles transient failures by automatically retrying operations
// with configurable delays, backoff strategies, and jitter to prevent thundering
// herd problems.
//
// # Configuration
//
// Create a Retrier with custom retry policy:
//
//	config := retry.RetryConfig{
//	    MaxAttempts:       5,
//	    InitialDelay:      100 * time.Millisecond,
//	    MaxDelay:          30 * time.Second,
//	    BackoffMultiplier: 2.0,
//	    JitterMaxPercent:  25,
//	}
//	retrier := retry.NewRetrier(config)
//
// # Executing with Retry
//
// Wrap operations with automatic retry on failure:
//
//	err := retrier.Execute(ctx, func(ctx context.Context) error {
//	    return session.SendReliable(frame)
//	})
//
// For operations that return a value (the value is discarded; only the
// final error is returned):
//
//	err := retrier.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
//	    return fetchData()
//	})
//
// # Backoff Strategy
//
// Delays increase exponentially between retries:
//
//	Attempt 1: InitialDelay (e.g. 200ms)
//	Attempt 2: InitialDelay * BackoffMultiplier (e.g. 400ms)
//	Attempt 3: Previous * BackoffMultiplier (e.g. 800ms)
//	...up to MaxDelay
//
// Jitter is applied to prevent synchronized retries across clients.
//
// # Pre-configured Policies
//
// This server's three external-dependency boundaries each get their own
// policy, tuned for how forgiving that boundary can afford to be:
//
//	// Default: 3 attempts, 100ms initial delay
//	err := retry.Execute(ctx, operation)
//
//	// Reliable (TCP) broadcast send: 5 attempts, 200ms initial, 60s max
//	err := retry.ExecuteReliableSend(ctx, operation)
//
//	// Optional spectator websocket stream: 2 attempts, 5ms initial, 20ms max —
//	// fire-and-forget, must never stall a tick broadcast
//	err := retry.ExecuteDebugStream(ctx, operation)
//
//	// Roster YAML load at startup: 3 attempts, 50ms initial, 5s max
//	err := retry.ExecuteRosterLoad(ctx, operation)
//
// # Retryable Errors
//
// Every non-nil error triggers a retry. RetryableErrors lists errors that
// are retried, but it does not restrict retries: an error missing from the
// list is retried as well.
//
//	config.RetryableErrors = []error{
//	    syscall.ECONNREFUSED,
//	    io.ErrUnexpectedEOF,
//	}
//
// # Context Support
//
// Retries respect context cancellation and deadlines:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	err := retrier.Execute(ctx, operation)
//
// # Logging
//
// Retry attempts are logged with structured context including attempt number,
// delay duration, and error details for debugging transient failures.
package retry
