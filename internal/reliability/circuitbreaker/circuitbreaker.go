package circuitbreaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrOpen is returned by Execute while the breaker rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker fails fast once a dependency has failed repeatedly
type CircuitBreaker struct {
	state            atomic.Value
	failureCount     atomic.Int32
	successCount     atomic.Int32
	openedAt         atomic.Value
	failureThreshold int32
	successThreshold int32
	timeout          time.Duration
	mu               sync.RWMutex
	onStateChange    func(from, to State)
	now              func() time.Time
}

// NewCircuitBreaker creates a closed breaker. It opens after failureThreshold
// consecutive failures and probes again once timeout has elapsed.
func NewCircuitBreaker(failureThreshold, successThreshold int32, timeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		onStateChange:    func(_, _ State) {},
		now:              time.Now,
	}
	cb.state.Store(StateClosed)
	return cb
}

// SetStateChangeCallback registers a callback for state transitions
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn when the breaker allows it and records the outcome.
// Errors for which countable returns false do not trip the breaker.
func (cb *CircuitBreaker) Execute(fn func() error, countable func(error) bool) error {
	if !cb.AllowRequest() {
		return ErrOpen
	}
	err := fn()
	switch {
	case err == nil:
		cb.RecordSuccess()
	case countable == nil || countable(err):
		cb.RecordFailure()
	}
	return err
}

// RecordSuccess resets failures, closing a half-open breaker after enough successes
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.GetState() {
	case StateHalfOpen:
		if cb.successCount.Add(1) >= cb.successThreshold {
			cb.setState(StateClosed)
			cb.failureCount.Store(0)
			cb.successCount.Store(0)
		}
	case StateClosed:
		cb.failureCount.Store(0)
	}
}

// RecordFailure counts a failure and may trip the breaker open
func (cb *CircuitBreaker) RecordFailure() {
	switch cb.GetState() {
	case StateClosed:
		if cb.failureCount.Add(1) >= cb.failureThreshold {
			cb.trip()
		}
	case StateHalfOpen:
		cb.trip()
	}
}

// AllowRequest reports whether a call may proceed
func (cb *CircuitBreaker) AllowRequest() bool {
	if cb.GetState() != StateOpen {
		return true
	}
	openedAt, ok := cb.openedAt.Load().(time.Time)
	if !ok {
		return false
	}
	if cb.now().Sub(openedAt) >= cb.timeout {
		cb.setState(StateHalfOpen)
		cb.failureCount.Store(0)
		cb.successCount.Store(0)
		return true
	}
	return false
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	return cb.state.Load().(State)
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt.Store(cb.now())
	cb.setState(StateOpen)
	cb.failureCount.Store(0)
	cb.successCount.Store(0)
}

func (cb *CircuitBreaker) setState(newState State) {
	oldState := cb.GetState()
	if oldState == newState {
		return
	}
	cb.state.Store(newState)
	cb.mu.RLock()
	fn := cb.onStateChange
	cb.mu.RUnlock()
	if fn != nil {
		fn(oldState, newState)
	}
}
