package gateway

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// MockGateway approves a fixed share of payments at random.
type MockGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

func NewMockGateway(seed int64, successRate float64) *MockGateway {
	if successRate < 0 || successRate > 1 {
		successRate = 0.9
	}
	return &MockGateway{
		rng:         rand.New(rand.NewSource(seed)),
		successRate: successRate,
	}
}

func (g *MockGateway) ConfirmPayment(ctx context.Context, orderID int64, vpa string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(vpa) == "" {
		return OutcomeFailed, nil
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll < g.successRate {
		return OutcomePaid, nil
	}
	return OutcomeFailed, nil
}
