package payment

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrGatewayDeclined = errors.New("payment declined by gateway")

type ChargeRequest struct {
	TransactionID string
	Amount        float64
	Method        Method
}

// Gateway charges a payment. Implementations must return promptly once ctx
// is done, with ctx.Err() or an error wrapping it.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) error
}

// SimulatedGateway stands in for a card processor. Each charge waits a
// jittered latency in [latency/2, latency] and then succeeds with the
// configured probability.
type SimulatedGateway struct {
	latency     time.Duration
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedGateway(latency time.Duration, successRate float64, src rand.Source) *SimulatedGateway {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &SimulatedGateway{
		latency:     latency,
		successRate: successRate,
		rng:         rand.New(src),
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ ChargeRequest) error {
	delay, roll := g.draw()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if roll >= g.successRate {
		return ErrGatewayDeclined
	}
	return nil
}

func (g *SimulatedGateway) draw() (time.Duration, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var delay time.Duration
	if g.latency > 0 {
		half := int64(g.latency / 2)
		delay = time.Duration(half + g.rng.Int63n(int64(g.latency)-half+1))
	}
	return delay, g.rng.Float64()
}
