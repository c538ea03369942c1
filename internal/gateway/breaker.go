package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway trips after consecutive gateway errors. A FAILED outcome is a
// valid answer and does not count against the breaker.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[Outcome]
}

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func NewBreakerGateway(next Gateway, s BreakerSettings) *BreakerGateway {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[Outcome](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (g *BreakerGateway) ConfirmPayment(ctx context.Context, orderID int64, vpa string) (Outcome, error) {
	out, err := g.cb.Execute(func() (Outcome, error) {
		return g.next.ConfirmPayment(ctx, orderID, vpa)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	return out, err
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}
