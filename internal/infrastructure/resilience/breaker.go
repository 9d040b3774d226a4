package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// Trials is the number of calls let through while half-open, and
	// the number of successes needed to close again.
	Trials uint32
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes, outside the lock.
	OnStateChange func(name string, from State, to State)
}

// Counts holds the statistics of the current state
type Counts struct {
	Requests             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu         sync.Mutex
	state      State
	counts     Counts
	openUntil  time.Time
	generation uint64
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.Trials == 0 {
		settings.Trials = 1
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{name: name, settings: settings, now: time.Now}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	state, _, change := b.current()
	b.mu.Unlock()
	b.notify(change)
	return state
}

// Counts returns a copy of the current counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn unless the circuit is open. A panic in fn counts as a failure
// and is re-raised.
func (b *Breaker) Do(fn func() error) (err error) {
	generation, err := b.before()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.after(generation, false)
			panic(r)
		}
	}()

	err = fn()
	b.after(generation, err == nil)
	return err
}

type transition struct {
	from, to State
}

func (b *Breaker) before() (uint64, error) {
	b.mu.Lock()
	state, generation, change := b.current()
	var err error
	switch {
	case state == StateOpen:
		err = ErrCircuitOpen
	case state == StateHalfOpen && b.counts.Requests >= b.settings.Trials:
		err = ErrTooManyRequests
	default:
		b.counts.Requests++
	}
	b.mu.Unlock()

	b.notify(change)
	return generation, err
}

func (b *Breaker) after(before uint64, success bool) {
	b.mu.Lock()
	state, generation, change := b.current()
	if generation == before {
		if c := b.record(state, success); c != nil {
			change = c
		}
	}
	b.mu.Unlock()

	b.notify(change)
}

// record updates counts for a finished call. A result from an earlier
// generation is ignored by the caller.
func (b *Breaker) record(state State, success bool) *transition {
	if success {
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.Trials {
			return b.setState(StateClosed)
		}
		return nil
	}

	b.counts.ConsecutiveFailures++
	b.counts.ConsecutiveSuccesses = 0
	if state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.settings.FailureThreshold {
		return b.setState(StateOpen)
	}
	return nil
}

// current moves an expired open circuit to half-open.
func (b *Breaker) current() (State, uint64, *transition) {
	var change *transition
	if b.state == StateOpen && !b.now().Before(b.openUntil) {
		change = b.setState(StateHalfOpen)
	}
	return b.state, b.generation, change
}

func (b *Breaker) setState(state State) *transition {
	if b.state == state {
		return nil
	}
	prev := b.state
	b.state = state
	b.counts = Counts{}
	b.generation++
	if state == StateOpen {
		b.openUntil = b.now().Add(b.settings.Cooldown)
	}
	return &transition{from: prev, to: state}
}

func (b *Breaker) notify(change *transition) {
	if change != nil && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, change.from, change.to)
	}
}
