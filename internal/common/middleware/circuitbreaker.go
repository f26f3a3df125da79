// Package middleware holds protocol-independent request guards shared by
// the transport layer.
package middleware

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker trips open after maxFailures consecutive failures and
// probes again after the reset timeout.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       circuitState
	failures    int
	maxFailures int
	resetAfter  time.Duration
	openedAt    time.Time
}

func NewCircuitBreaker(maxFailures int, resetAfter time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetAfter <= 0 {
		resetAfter = 30 * time.Second
	}
	return &CircuitBreaker{
		state:       stateClosed,
		maxFailures: maxFailures,
		resetAfter:  resetAfter,
	}
}

// Allow reports whether a call may proceed. In the open state the first
// call after the reset timeout is let through as a half-open probe.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateOpen:
		if time.Since(cb.openedAt) >= cb.resetAfter {
			cb.state = stateHalfOpen
			return nil
		}
		return ErrCircuitOpen
	default:
		return nil
	}
}

// Success resets the failure count and closes the breaker.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = stateClosed
}

// Failure records a failed call. A failed half-open probe reopens
// immediately.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == stateHalfOpen {
		cb.state = stateOpen
		cb.openedAt = time.Now()
		return
	}

	cb.failures++
	if cb.failures >= cb.maxFailures {
		cb.state = stateOpen
		cb.openedAt = time.Now()
	}
}
