package auditstore

import (
	"context"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

// Querier reads back recorded events for the audit endpoint.
type Querier interface {
	Query(ctx context.Context, f Filter) ([]audit.SecurityEvent, error)
}

// MemoryQuerier answers queries from an in-process ring when no database is
// configured.
type MemoryQuerier struct {
	Memory *audit.Memory
}

// Query filters the ring, newest first.
func (m MemoryQuerier) Query(_ context.Context, f Filter) ([]audit.SecurityEvent, error) {
	limit := limitOrDefault(f.Limit)
	out := []audit.SecurityEvent{}
	for _, e := range m.Memory.Recent(0) {
		if len(out) == limit {
			break
		}
		if f.Operation != "" && e.Operation != f.Operation {
			continue
		}
		if f.Outcome != "" && e.Outcome != f.Outcome {
			continue
		}
		if f.Actor != "" && e.Actor != f.Actor {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
