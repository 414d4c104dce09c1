// Package resilience guards calls to external systems with a circuit
// breaker and retry with exponential backoff.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the state of a circuit breaker.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold successes in half-open close it again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the defaults used for event delivery.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	openedAt    time.Time
	rejected    int64
	transitions int64
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &Breaker{name: name, config: config, now: time.Now, state: StateClosed}
}

// Execute runs fn unless the circuit is open. Context cancellation is not
// counted as a failure of the guarded system.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	switch {
	case err == nil:
		b.onSuccess()
	case errors.Is(err, context.Canceled):
	default:
		b.onFailure()
	}
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.rejected++
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
	}
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(s State) {
	b.state = s
	b.failures = 0
	b.successes = 0
	b.transitions++
	if s == StateOpen {
		b.openedAt = b.now()
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// Rejected returns how many calls were refused while open.
func (b *Breaker) Rejected() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejected
}
