// Package id generates the identifiers that show up in audit records and
// request logs.
//
// All identifiers are ULIDs, so audit events sort by creation time without a
// separate timestamp column. Each kind carries a short prefix to keep logs
// readable:
//   - evt_*  security audit events
//   - req_*  HTTP, WebSocket and MCP requests
//   - anon_* actors that did not identify themselves
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventID identifies a security audit event.
type EventID string

// RequestID identifies one inbound tool call.
type RequestID string

// ActorID identifies a caller that supplied no identity of its own.
type ActorID string

const (
	EventPrefix   = "evt"
	RequestPrefix = "req"
	ActorPrefix   = "anon"
)

// Generator produces monotonic ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand. Identifiers created
// within the same millisecond are strictly increasing.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a caller-supplied entropy
// source, mostly for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix returns "<prefix>_<ulid>".
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return prefix + "_" + g.Generate().String()
}

// NewEventID generates an audit event ID.
func NewEventID() EventID {
	return EventID(Default().GenerateWithPrefix(EventPrefix))
}

// NewRequestID generates a request ID.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewActorID generates an anonymous actor identity.
func NewActorID() ActorID {
	return ActorID(Default().GenerateWithPrefix(ActorPrefix))
}

func (id EventID) String() string   { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id ActorID) String() string   { return string(id) }

// Split separates a prefixed identifier into its prefix and ULID parts.
func Split(s string) (prefix string, u ulid.ULID, err error) {
	prefix, raw, found := strings.Cut(s, "_")
	if !found {
		raw, prefix = prefix, ""
	}
	u, err = ulid.Parse(raw)
	return prefix, u, err
}

// IsValid reports whether s is a ULID, with or without a prefix.
func IsValid(s string) bool {
	_, _, err := Split(s)
	return err == nil
}

// Timestamp extracts the creation time of a (possibly prefixed) identifier.
func Timestamp(s string) (time.Time, error) {
	_, u, err := Split(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
