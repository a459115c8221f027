package scan

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/coachpo/taskbus/internal/bus/eventbus"
)

// Launcher publishes scan requests, pacing swarms with a token bucket.
type Launcher struct {
	bus     *eventbus.Bus
	limiter *rate.Limiter
	counter atomic.Int64
}

// NewLauncher allows perSecond launches with the given burst.
func NewLauncher(bus *eventbus.Bus, perSecond float64, burst int) *Launcher {
	if burst <= 0 {
		burst = 1
	}
	return &Launcher{
		bus:     bus,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Launch publishes a single probe immediately.
func (l *Launcher) Launch(ctx context.Context) (*eventbus.Dispatch[*PlanetaryScan], error) {
	id := int(l.counter.Add(1))
	return eventbus.Publish(ctx, l.bus, PlanetaryScan{PlanetID: id, ProbeID: uuid.New()})
}

// Swarm launches n probes, waiting on the limiter between launches. It
// returns the dispatches published before any failure.
func (l *Launcher) Swarm(ctx context.Context, n int) ([]*eventbus.Dispatch[*PlanetaryScan], error) {
	dispatches := make([]*eventbus.Dispatch[*PlanetaryScan], 0, n)
	for i := 0; i < n; i++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return dispatches, fmt.Errorf("swarm throttle: %w", err)
		}
		d, err := l.Launch(ctx)
		if err != nil {
			return dispatches, err
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, nil
}

// Launched returns how many probes were published.
func (l *Launcher) Launched() int {
	return int(l.counter.Load())
}
