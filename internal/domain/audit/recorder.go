package audit

import (
	"context"
	"errors"
)

// Recorder appends security events to an audit trail. Implementations must be
// safe for concurrent use and must not return before the event is durable
// as far as the sink allows.
type Recorder interface {
	Record(ctx context.Context, event SecurityEvent) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, event SecurityEvent) error

func (f RecorderFunc) Record(ctx context.Context, event SecurityEvent) error {
	return f(ctx, event)
}

// Nop discards every event.
var Nop Recorder = RecorderFunc(func(context.Context, SecurityEvent) error { return nil })

type multi []Recorder

// Multi fans an event out to every recorder. All recorders are attempted
// even when one fails; the errors are joined.
func Multi(recorders ...Recorder) Recorder {
	var out multi
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Record(ctx context.Context, event SecurityEvent) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
