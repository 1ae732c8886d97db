package inference

import (
	"context"
	"log"
	"sync"
	"time"
)

// CircuitBreaker halts inference calls after repeated backend failures
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	failures            int
	successes           int
	totalRequests       int
	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	mutex sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.successes++
	cb.totalRequests++
	cb.consecutiveFailures = 0
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.totalRequests++
	cb.lastFailureTime = time.Now()

	if cb.consecutiveFailures >= cb.failureThreshold {
		cb.isOpen = true
		log.Printf("Inference: circuit breaker open after %d consecutive failures, retry after %v",
			cb.consecutiveFailures, cb.resetTimeout)
	}
}

// CanProceed checks if requests are allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	// Half-open after the reset timeout
	if time.Since(cb.lastFailureTime) > cb.resetTimeout {
		log.Printf("Inference: circuit breaker attempting half-open state after %v", cb.resetTimeout)
		cb.isOpen = false
		cb.failures = 0
		cb.successes = 0
		cb.totalRequests = 0
		cb.consecutiveFailures = 0
		return true
	}

	return false
}

// GetStatus returns current circuit breaker status
func (cb *CircuitBreaker) GetStatus() (isOpen bool, failures int, total int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.isOpen, cb.failures, cb.totalRequests
}

// BreakerGateway wraps a Gateway with a CircuitBreaker. While the breaker
// is open every call fails fast with ErrUnavailable; the pipeline's
// per-component default path absorbs those failures, and the insight stage
// surfaces them as pipeline errors.
type BreakerGateway struct {
	next    Gateway
	breaker *CircuitBreaker
}

func NewBreakerGateway(next Gateway, breaker *CircuitBreaker) *BreakerGateway {
	return &BreakerGateway{next: next, breaker: breaker}
}

func (bg *BreakerGateway) Generate(ctx context.Context, req Request) (map[string]any, error) {
	if !bg.breaker.CanProceed() {
		return nil, ErrUnavailable
	}

	result, err := bg.next.Generate(ctx, req)
	if err != nil {
		bg.breaker.RecordFailure()
		return nil, err
	}

	bg.breaker.RecordSuccess()
	return result, nil
}

// Breaker exposes the underlying breaker for status endpoints
func (bg *BreakerGateway) Breaker() *CircuitBreaker {
	return bg.breaker
}
