package auditstore

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/resilience"
)

// Guarded skips a secondary sink while its breaker is open. Skipped events
// are counted, not reported as errors; the primary sink still has them.
type Guarded struct {
	next    audit.Recorder
	breaker *resilience.Breaker
	dropped atomic.Int64
}

// NewGuarded wraps next with breaker.
func NewGuarded(next audit.Recorder, breaker *resilience.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

// Record forwards the event unless the circuit is open.
func (g *Guarded) Record(ctx context.Context, event audit.SecurityEvent) error {
	err := g.breaker.Do(func() error { return g.next.Record(ctx, event) })
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		g.dropped.Add(1)
		return nil
	}
	return err
}

// Dropped returns the number of skipped events.
func (g *Guarded) Dropped() int64 {
	return g.dropped.Load()
}
