package breaker

import (
	"errors"
	"sync"
	"time"
)

type status uint8

const (
	closed status = iota + 1
	open
	halfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	Reset()
}

type circuitBreaker struct {
	mu    sync.Mutex
	state status

	// ring buffer over the last recordLength calls, true = failed
	buffer []bool
	pos    int

	// failure share of the buffer that trips the breaker
	threshold float64
	// how long the breaker stays open before probing
	timeout     time.Duration
	lastTripped time.Time

	// consecutive half-open successes needed to close again
	recoveryCalls int
	successCount  int
}

func New(recordLength int, timeout time.Duration, threshold float64, recoveryCalls int) CircuitBreaker {
	return &circuitBreaker{
		state:         closed,
		buffer:        make([]bool, recordLength),
		threshold:     threshold,
		timeout:       timeout,
		recoveryCalls: recoveryCalls,
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == open {
		if time.Since(cb.lastTripped) > cb.timeout {
			cb.state = halfOpen
			cb.successCount = 0
		} else {
			cb.mu.Unlock()
			return ErrOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.buffer[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % len(cb.buffer)

	if cb.state == halfOpen {
		if err != nil {
			cb.trip()
		} else {
			cb.successCount++
			if cb.successCount > cb.recoveryCalls {
				cb.Reset()
			}
		}
		return err
	}

	fails := 0
	for _, failed := range cb.buffer {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(cb.buffer)) >= cb.threshold {
		cb.trip()
	}

	return err
}

func (cb *circuitBreaker) trip() {
	cb.state = open
	cb.successCount = 0
	cb.lastTripped = time.Now()
}

func (cb *circuitBreaker) Reset() {
	for i := range cb.buffer {
		cb.buffer[i] = false
	}
	cb.pos = 0
	cb.successCount = 0
	cb.state = closed
}
