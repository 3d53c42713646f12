package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Gate spaces generative-service calls across the whole process. The first
// call passes immediately; each later call waits for one interval.
type Gate struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewGate returns a gate admitting one call per interval. A non-positive
// interval disables spacing.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{interval: interval, limiter: rate.NewLimiter(limit, 1)}
}

func (g *Gate) Interval() time.Duration {
	if g == nil {
		return 0
	}
	return g.interval
}

// Wait blocks until the next call may start or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The limiter refuses up front when the wait would outlive the deadline.
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("call gate: %v: %w", err, context.DeadlineExceeded)
		}
		return fmt.Errorf("call gate: %w", err)
	}
	return nil
}

// GatedProvider passes every call through a shared Gate.
type GatedProvider struct {
	next Provider
	gate *Gate
}

func NewGatedProvider(next Provider, gate *Gate) *GatedProvider {
	return &GatedProvider{next: next, gate: gate}
}

func (p *GatedProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if err := p.gate.Wait(ctx); err != nil {
		return Response{}, err
	}
	return p.next.Generate(ctx, req)
}
