package resilience

import "time"

// Config carries every policy threshold for the envelope. Defaults mirror
// production settings; tests shrink the durations.
type Config struct {
	// Rate limiter: RateLimit permits per RateWindow, callers block up to
	// RateWait for a permit before being throttled.
	RateLimit  int
	RateWindow time.Duration
	RateWait   time.Duration

	// Circuit breaker. The failure rate is evaluated once BreakerMinCalls
	// have been observed; slow calls (latency above SlowCallThreshold) count
	// toward the same rate. BreakerInterval is the cadence at which the
	// closed-state call window resets.
	BreakerMinCalls    uint32
	BreakerFailureRate float64
	BreakerInterval    time.Duration
	SlowCallThreshold  time.Duration
	OpenStateWait      time.Duration
	HalfOpenProbes     uint32

	// Retry: transient faults only.
	RetryAttempts int
	RetryBackoff  time.Duration

	// Per-attempt timeouts. Account creation gets a longer budget than
	// balance mutations.
	TransactionTimeout time.Duration
	CreationTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		RateLimit:          100,
		RateWindow:         time.Minute,
		RateWait:           3 * time.Second,
		BreakerMinCalls:    5,
		BreakerFailureRate: 0.5,
		BreakerInterval:    time.Minute,
		SlowCallThreshold:  2 * time.Second,
		OpenStateWait:      30 * time.Second,
		HalfOpenProbes:     3,
		RetryAttempts:      3,
		RetryBackoff:       500 * time.Millisecond,
		TransactionTimeout: 5 * time.Second,
		CreationTimeout:    10 * time.Second,
	}
}
