/*
Package resilience provides a circuit breaker for optional dependencies.

# Overview

The breaker guards sinks whose failure must not slow the main path, such as
the SQLite audit mirror. After a run of consecutive failures it opens and
calls fail fast with ErrCircuitOpen; after a cooldown it lets a few trial
calls through and closes again once they succeed.

# Usage

	breaker := resilience.New("audit-db", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed", zap.String("to", to.String()))
		},
	})

	err := breaker.Do(func() error {
		return store.Record(ctx, event)
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[successes]-> Closed
	                                            |
	                                        [failure]
	                                            v
	                                           Open
*/
package resilience
