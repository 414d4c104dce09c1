package notify

import (
	"context"

	"trade-journal/internal/resilience"
)

// GuardedChannel retries a channel's deliveries and stops calling it while
// its circuit is open.
type GuardedChannel struct {
	Channel
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// Guard wraps ch with a circuit breaker and retry.
func Guard(ch Channel, breaker resilience.BreakerConfig, retry resilience.RetryConfig) *GuardedChannel {
	return &GuardedChannel{
		Channel: ch,
		breaker: resilience.NewBreaker(ch.Name(), breaker),
		retry:   retry,
	}
}

// Send delivers e through the breaker.
func (g *GuardedChannel) Send(ctx context.Context, e Event) error {
	return resilience.Retry(ctx, g.retry, func(ctx context.Context) error {
		return g.breaker.Execute(ctx, func(ctx context.Context) error {
			return g.Channel.Send(ctx, e)
		})
	})
}

// State returns the breaker state.
func (g *GuardedChannel) State() resilience.State {
	return g.breaker.State()
}
