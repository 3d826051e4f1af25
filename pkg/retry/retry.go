// Package retry provides configurable retry mechanisms with exponential backoff
// for transient failures. It integrates with circuit breakers and respects
// context deadlines to provide resilient operation handling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	// MaxAttempts is the maximum number of retry attempts (including initial attempt)
	MaxAttempts int

	// InitialDelay is the initial delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff (typically 2.0)
	BackoffMultiplier float64

	// JitterMaxPercent is the maximum percentage of jitter to add (0-100)
	JitterMaxPercent int

	// RetryableErrors lists error types that trigger a retry. Errors not in
	// the list are retried too; see isRetryable.
	RetryableErrors []error
}

// DefaultRetryConfig returns a sensible default retry configuration, used
// wherever a caller hasn't picked a more specific policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		JitterMaxPercent:  10,
		RetryableErrors:   []error{context.DeadlineExceeded},
	}
}

// ReliableSendRetryConfig returns retry configuration tuned for the
// orchestrator's reliable (TCP) broadcast sends: a dropped write during a
// brief network blip is worth chasing harder than a generic operation,
// since the alternative is a desynced client.
func ReliableSendRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      200 * time.Millisecond,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
		JitterMaxPercent:  15,
		RetryableErrors:   []error{context.DeadlineExceeded},
	}
}

// DebugStreamRetryConfig returns retry configuration for the optional
// spectator websocket stream. Spectating is best-effort and must never
// stall a tick broadcast, so attempts are few and delays are short.
func DebugStreamRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       2,
		InitialDelay:      5 * time.Millisecond,
		MaxDelay:          20 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterMaxPercent:  10,
		RetryableErrors:   []error{context.DeadlineExceeded},
	}
}

// RosterLoadRetryConfig returns retry configuration for reading the
// character-roster YAML override file from disk at startup: a handful of
// quick attempts is enough to ride out a transient filesystem hiccup
// without delaying server boot.
func RosterLoadRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      50 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 1.5,
		JitterMaxPercent:  5,
		RetryableErrors:   []error{context.DeadlineExceeded},
	}
}

// Retrier provides retry functionality with exponential backoff
type Retrier struct {
	config RetryConfig
	logger *logrus.Entry
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{
		config: config,
		logger: logrus.WithField("component", "Retrier"),
	}
}

// Execute runs the given function with retry logic and exponential backoff
func (r *Retrier) Execute(ctx context.Context, operation func(context.Context) error) error {
	return r.ExecuteWithResult(ctx, func(ctx context.Context) (interface{}, error) {
		err := operation(ctx)
		return nil, err
	})
}

// ExecuteWithResult runs the given function with retry logic. The function's
// result value is discarded; only the final error is returned.
func (r *Retrier) ExecuteWithResult(ctx context.Context, operation func(context.Context) (interface{}, error)) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		logger := r.attemptLogger(attempt)

		if err := r.checkContext(ctx, logger); err != nil {
			return err
		}

		r.attemptOperation(ctx, operation, logger, attempt, &lastErr)

		if lastErr == nil {
			return nil
		}

		if r.shouldGiveUp(attempt, lastErr, logger) {
			break
		}

		if err := r.sleepBeforeRetry(ctx, attempt, logger); err != nil {
			return err
		}
	}

	return r.wrapExhausted(lastErr)
}

// attemptLogger creates a logger with attempt context
func (r *Retrier) attemptLogger(attempt int) *logrus.Entry {
	return r.logger.WithFields(logrus.Fields{
		"attempt":      attempt,
		"max_attempts": r.config.MaxAttempts,
	})
}

// checkContext checks if the context is still valid before attempting operation
func (r *Retrier) checkContext(ctx context.Context, logger *logrus.Entry) error {
	if ctx.Err() != nil {
		logger.Debug("context cancelled before retry attempt")
		return ctx.Err()
	}
	return nil
}

// attemptOperation executes the operation once and records its outcome
func (r *Retrier) attemptOperation(ctx context.Context, operation func(context.Context) (interface{}, error), logger *logrus.Entry, attempt int, lastErr *error) {
	logger.Debug("executing operation attempt")

	_, err := operation(ctx)
	*lastErr = err

	if err == nil {
		if attempt > 1 {
			logger.WithField("total_attempts", attempt).Info("operation succeeded after retry")
		}
		return
	}

	logger.WithError(err).Debug("operation failed")
}

// shouldGiveUp determines if retry attempts should stop
func (r *Retrier) shouldGiveUp(attempt int, lastErr error, logger *logrus.Entry) bool {
	if attempt == r.config.MaxAttempts {
		logger.WithError(lastErr).Warn("all retry attempts exhausted")
		return true
	}

	if !r.isRetryable(lastErr) {
		logger.WithError(lastErr).Debug("error is not retryable, stopping")
		return true
	}

	return false
}

// sleepBeforeRetry waits out the delay between retry attempts, honoring context cancellation
func (r *Retrier) sleepBeforeRetry(ctx context.Context, attempt int, logger *logrus.Entry) error {
	delay := r.calculateDelay(attempt)
	logger.WithField("delay", delay).Debug("waiting before retry")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		logger.Debug("context cancelled during retry delay")
		return ctx.Err()
	}
}

// wrapExhausted wraps the last error with retry context
func (r *Retrier) wrapExhausted(lastErr error) error {
	return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// isRetryable checks if an error should trigger a retry
func (r *Retrier) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	for _, retryableErr := range r.config.RetryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}

	// Most errors are treated as transient by default; operations that want
	// to fail fast on a specific error must list it as non-retryable at a
	// higher layer (the circuit breaker in pkg/resilience is what actually
	// stops a persistently failing dependency from being hammered).
	return true
}

// calculateDelay calculates the delay for a given attempt with exponential backoff and jitter
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	if r.config.JitterMaxPercent > 0 {
		jitterRange := delay * float64(r.config.JitterMaxPercent) / 100.0
		jitter := (rand.Float64() - 0.5) * 2 * jitterRange
		delay += jitter

		if delay < 0 {
			delay = float64(r.config.InitialDelay)
		}
	}

	return time.Duration(delay)
}

// isTimeoutError checks if an error is timeout-related
func isTimeoutError(err error) bool {
	type timeout interface {
		Timeout() bool
	}

	if timeout, ok := err.(timeout); ok {
		return timeout.Timeout()
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// Global retriers for the policies this server and client actually use.
var (
	DefaultRetrier      = NewRetrier(DefaultRetryConfig())
	ReliableSendRetrier = NewRetrier(ReliableSendRetryConfig())
	DebugStreamRetrier  = NewRetrier(DebugStreamRetryConfig())
	RosterLoadRetrier   = NewRetrier(RosterLoadRetryConfig())
)

// Execute runs an operation with default retry configuration
func Execute(ctx context.Context, operation func(context.Context) error) error {
	return DefaultRetrier.Execute(ctx, operation)
}

// ExecuteReliableSend runs an operation with the reliable-send retry policy
func ExecuteReliableSend(ctx context.Context, operation func(context.Context) error) error {
	return ReliableSendRetrier.Execute(ctx, operation)
}

// ExecuteDebugStream runs an operation with the spectator-stream retry policy
func ExecuteDebugStream(ctx context.Context, operation func(context.Context) error) error {
	return DebugStreamRetrier.Execute(ctx, operation)
}

// ExecuteRosterLoad runs an operation with the roster-file retry policy
func ExecuteRosterLoad(ctx context.Context, operation func(context.Context) error) error {
	return RosterLoadRetrier.Execute(ctx, operation)
}
