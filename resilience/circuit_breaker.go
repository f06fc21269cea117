package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows a bounded number of probes to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit. Reaching the threshold exactly triggers the transition.
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open before probing.
	ResetTimeout time.Duration
	// HalfOpenMaxProbes bounds the number of in-flight probes admitted
	// while half-open. Callers beyond the bound are rejected with
	// ErrCircuitOpen until a probe resolves. Default 1.
	HalfOpenMaxProbes int
	// IsFailure determines if an error counts as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(error) bool
	// OnStateChange is called (with the breaker lock held) on transitions.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:              name,
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenMaxProbes: 1,
	}
}

// CircuitBreaker is a stateful gate in front of an unreliable dependency.
// It fails fast once the dependency looks unhealthy and re-admits traffic
// through a bounded probe after a recovery window.
//
// States:
//   - Closed: normal operation, requests pass through
//   - Open: requests fail immediately with ErrCircuitOpen
//   - Half-Open: up to HalfOpenMaxProbes requests probe the dependency
//
// All transitions happen inside one critical section, so racing callers
// cannot double-transition the breaker.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu             sync.Mutex
	state          State
	failures       int
	lastFailure    time.Time
	inFlightProbes int
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxProbes <= 0 {
		config.HalfOpenMaxProbes = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs fn through the circuit breaker.
// Returns ErrCircuitOpen without invoking fn if the call is rejected.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.acquire()
	if err != nil {
		return err
	}

	err = fn()
	cb.record(err, probe)
	return err
}

// Call runs a result-returning function through the circuit breaker.
func Call[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var result T
	err := cb.Execute(func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState(time.Now())
}

// Failures returns the current consecutive-failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// LastFailure returns the time of the most recent recorded failure.
func (cb *CircuitBreaker) LastFailure() time.Time {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastFailure
}

// Reset forces the breaker back to the closed state and clears counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
	cb.inFlightProbes = 0
}

// acquire decides whether the call may proceed. The returned probe flag
// records whether the call was admitted as a half-open probe, so its
// outcome is accounted against the probe budget it consumed.
func (cb *CircuitBreaker) acquire() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState(time.Now()) {
	case StateClosed:
		return false, nil
	case StateHalfOpen:
		if cb.inFlightProbes < cb.config.HalfOpenMaxProbes {
			cb.inFlightProbes++
			return true, nil
		}
		return false, ErrCircuitOpen
	default:
		return false, ErrCircuitOpen
	}
}

// record applies a call outcome to the breaker state.
func (cb *CircuitBreaker) record(err error, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)

	if probe {
		if cb.inFlightProbes > 0 {
			cb.inFlightProbes--
		}
		if failed {
			// Failed probe: back to open, restart the recovery window.
			cb.failures++
			cb.lastFailure = time.Now()
			cb.transition(StateOpen)
		} else {
			cb.failures = 0
			cb.transition(StateClosed)
		}
		return
	}

	// Calls admitted while closed only count while the breaker is still
	// closed; a late result from before a transition is not re-applied.
	if cb.state != StateClosed {
		return
	}

	if failed {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}
	} else {
		cb.failures = 0
	}
}

// currentState returns the state at instant now, applying the lazy
// open-to-half-open transition once the recovery window has elapsed.
// Callers must hold cb.mu.
func (cb *CircuitBreaker) currentState(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.transition(StateHalfOpen)
	}
	return cb.state
}

// transition moves to a new state and fires the state-change hook.
// Callers must hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to

	if to == StateHalfOpen {
		cb.inFlightProbes = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
