package audit

import (
	"time"

	"github.com/GriffinCanCode/FileMaster/internal/shared/id"
)

// Outcome is the tag of an operation result.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeDenied    Outcome = "denied"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeConflict  Outcome = "conflict"
	OutcomeIOFailure Outcome = "io_failure"
)

// Valid reports whether o is one of the defined outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeDenied, OutcomeNotFound, OutcomeConflict, OutcomeIOFailure:
		return true
	}
	return false
}

// SecurityEvent is one immutable audit record.
type SecurityEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"ts"`
	Operation   string    `json:"operation"`
	Outcome     Outcome   `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	Actor       string    `json:"actor"`
	Requested   string    `json:"requested"`
	Resolved    string    `json:"resolved,omitempty"`
	Destination string    `json:"destination,omitempty"`
}

// NewEvent starts an event for operation on requested. The returned value is
// completed with one of the outcome methods, each of which returns a copy.
func NewEvent(operation, actor, requested string) SecurityEvent {
	return SecurityEvent{
		ID:        string(id.NewEventID()),
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Actor:     actor,
		Requested: requested,
	}
}

// WithResolved records the canonical path the request resolved to.
func (e SecurityEvent) WithResolved(resolved string) SecurityEvent {
	e.Resolved = resolved
	return e
}

// WithDestination records the destination of a move.
func (e SecurityEvent) WithDestination(dest string) SecurityEvent {
	e.Destination = dest
	return e
}

// Succeeded tags the event as a success.
func (e SecurityEvent) Succeeded() SecurityEvent {
	e.Outcome = OutcomeSuccess
	e.Reason = ""
	return e
}

// Denied tags the event as a policy or validation denial.
func (e SecurityEvent) Denied(reason string) SecurityEvent {
	e.Outcome = OutcomeDenied
	e.Reason = reason
	return e
}

// Failed tags the event with a non-denial failure outcome.
func (e SecurityEvent) Failed(outcome Outcome, reason string) SecurityEvent {
	e.Outcome = outcome
	e.Reason = reason
	return e
}
