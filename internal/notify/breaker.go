package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// BreakerChannel stops calling a failing channel for OpenTimeout after
// ConsecutiveFailures failures in a row. Calls made while open fail fast
// with gobreaker.ErrOpenState.
type BreakerChannel struct {
	next    Channel
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerChannel(next Channel, cfg BreakerConfig, logger *slog.Logger) *BreakerChannel {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "notify-" + next.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notification breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerChannel{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (c *BreakerChannel) Name() string { return c.next.Name() }

func (c *BreakerChannel) Deliver(ctx context.Context, msg Message) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.next.Deliver(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", c.next.Name(), err)
	}
	return nil
}

func (c *BreakerChannel) State() gobreaker.State {
	return c.breaker.State()
}
