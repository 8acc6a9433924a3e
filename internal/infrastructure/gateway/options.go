package gateway

import "time"

// simConfig controls the behavior of the simulated gateways. Real SDK-backed
// implementations replace these at the composition root.
type simConfig struct {
	latency     time.Duration
	declineRate float64 // 0.0 to 1.0, business declines (FAILED result)
	errorRate   float64 // 0.0 to 1.0, transport errors (retryable)
}

type Option func(*simConfig)

// WithLatency sets the simulated processing latency.
func WithLatency(d time.Duration) Option {
	return func(c *simConfig) { c.latency = d }
}

// WithDeclineRate sets the probability of a business decline.
func WithDeclineRate(rate float64) Option {
	return func(c *simConfig) { c.declineRate = rate }
}

// WithErrorRate sets the probability of a transport error.
func WithErrorRate(rate float64) Option {
	return func(c *simConfig) { c.errorRate = rate }
}

func newSimConfig(opts ...Option) simConfig {
	c := simConfig{latency: 100 * time.Millisecond}
	for _, o := range opts {
		o(&c)
	}
	return c
}
