// Package resilience provides circuit breaker patterns for the server's
// external-dependency boundaries — reliable-channel sends, the optional
// spectator stream, and roster file loading — to prevent cascade failures
// and improve system resilience.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetReportCaller(true)
}

// CircuitBreakerState represents the current state of a circuit breaker
type CircuitBreakerState int

const (
	// StateClosed - circuit breaker is closed, allowing requests through
	StateClosed CircuitBreakerState = iota
	// StateOpen - circuit breaker is open, failing fast
	StateOpen
	// StateHalfOpen - circuit breaker is testing if the dependency has recovered
	StateHalfOpen
)

var circuitBreakerStateNames = [...]string{
	StateClosed:   "Closed",
	StateOpen:     "Open",
	StateHalfOpen: "HalfOpen",
}

// String returns the string representation of the circuit breaker state.
func (s CircuitBreakerState) String() string {
	if s >= 0 && int(s) < len(circuitBreakerStateNames) {
		return circuitBreakerStateNames[s]
	}
	return "Unknown"
}

// CircuitBreakerConfig holds configuration for a circuit breaker, one per
// external dependency (see the ReliableSendConfig/DebugStreamConfig/
// ConfigLoaderConfig presets in manager.go).
type CircuitBreakerConfig struct {
	// Name is the identifier for this circuit breaker
	Name string

	// MaxFailures is the number of failures before opening the circuit
	MaxFailures int

	// Timeout is how long to wait before transitioning from Open to HalfOpen
	Timeout time.Duration

	// MaxRequests is the maximum number of requests allowed in HalfOpen state
	MaxRequests int
}

// DefaultCircuitBreakerConfig returns a sensible default configuration for
// an ad-hoc dependency that hasn't earned its own tuned preset.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		MaxRequests: 3,
	}
}

// CircuitBreaker protects one external dependency from being hammered once
// it starts failing, by tripping from Closed to Open after MaxFailures
// consecutive failures and only probing again (HalfOpen) after Timeout.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	mu          sync.RWMutex
	state       CircuitBreakerState
	failures    int
	halfOpenReq int
	lastFailure time.Time
	logger      *logrus.Entry
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		config: config,
		state:  StateClosed,
		logger: logrus.WithField("circuit_breaker", config.Name),
	}

	cb.logger.WithField("initial_state", cb.state.String()).Debug("circuit breaker created")

	return cb
}

// ErrCircuitBreakerOpen is returned when the circuit breaker is open
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// Execute runs fn with circuit breaker protection. A panic inside fn is
// recovered and surfaced as an error rather than unwinding the caller
// (important here since Execute often runs inline in the orchestrator's
// single event-loop goroutine).
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		cb.recordOutcome(err)
		return err
	}

	if !cb.admit() {
		cb.logger.WithField("state", cb.GetState().String()).Warn("circuit breaker rejected call")
		return fmt.Errorf("%w: %s", ErrCircuitBreakerOpen, cb.config.Name)
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				cb.logger.WithField("panic", r).Error("protected call panicked")
				err = fmt.Errorf("function panicked: %v", r)
			}
		}()
		err = fn(ctx)
	}()

	cb.recordOutcome(err)
	return err
}

// admit decides whether a call may proceed and, if the Open timeout has
// just elapsed, advances the breaker into HalfOpen to probe the dependency.
func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastFailure) > cb.config.Timeout {
		cb.logger.WithFields(logrus.Fields{
			"old_state": StateOpen.String(),
			"new_state": StateHalfOpen.String(),
		}).Info("circuit breaker probing dependency")
		cb.state = StateHalfOpen
		cb.halfOpenReq = 0
	}

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		return false
	case StateHalfOpen:
		if cb.halfOpenReq >= cb.config.MaxRequests {
			return false
		}
		cb.halfOpenReq++
		return true
	default:
		cb.logger.WithField("state", cb.state).Warn("circuit breaker in unknown state")
		return false
	}
}

// recordOutcome applies a call's result to the breaker's state.
func (cb *CircuitBreaker) recordOutcome(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

// onFailure handles a failed request (must be called with mutex held)
func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.logger.WithFields(logrus.Fields{
				"failures":     cb.failures,
				"max_failures": cb.config.MaxFailures,
			}).Warn("circuit breaker opening, dependency failing")
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.logger.Info("probe failed, reopening circuit breaker")
		cb.state = StateOpen
		cb.halfOpenReq = 0
	}
}

// onSuccess handles a successful request (must be called with mutex held)
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		if cb.halfOpenReq >= cb.config.MaxRequests {
			cb.logger.WithField("probes", cb.halfOpenReq).Info("dependency recovered, closing circuit breaker")
			cb.state = StateClosed
			cb.failures = 0
			cb.halfOpenReq = 0
		}
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// GetStats returns current statistics for the circuit breaker
func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"name":         cb.config.Name,
		"state":        cb.state.String(),
		"failures":     cb.failures,
		"max_failures": cb.config.MaxFailures,
		"requests":     cb.halfOpenReq,
		"max_requests": cb.config.MaxRequests,
		"last_failure": cb.lastFailure,
		"timeout":      cb.config.Timeout,
	}
}

// Reset forces the circuit breaker back to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.logger.WithField("old_state", cb.state.String()).Info("circuit breaker manually reset")

	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenReq = 0
	cb.lastFailure = time.Time{}
}
