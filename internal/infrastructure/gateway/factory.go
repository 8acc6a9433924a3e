package gateway

import (
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	"github.com/sony/gobreaker/v2"
)

// Factory maps a gateway identifier to its implementation and circuit breaker.
// Resolution is a pure lookup; no per-request state is retained, so a Factory
// is safe for concurrent use across requests.
type Factory struct {
	gateways        map[string]Gateway
	circuitBreakers map[string]*gobreaker.CircuitBreaker[*Result]
}

// NewFactory builds a factory from the given gateways. With no arguments it
// registers the default simulated stripe and paypal gateways.
func NewFactory(gatewayList ...Gateway) *Factory {
	f := &Factory{
		gateways:        make(map[string]Gateway),
		circuitBreakers: make(map[string]*gobreaker.CircuitBreaker[*Result]),
	}

	if len(gatewayList) == 0 {
		f.Register(NewStripeGateway(
			WithLatency(200 * time.Millisecond),
		))
		f.Register(NewPayPalGateway(
			WithLatency(300 * time.Millisecond),
		))
	} else {
		for _, g := range gatewayList {
			f.Register(g)
		}
	}

	return f
}

// Register adds a gateway and wraps it in a circuit breaker.
func (f *Factory) Register(g Gateway) {
	f.gateways[g.Name()] = g
	f.circuitBreakers[g.Name()] = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        g.Name(),
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
}

// Resolve returns the gateway and breaker for the given identifier. An unknown
// identifier is a configuration error, surfaced before any side effect.
func (f *Factory) Resolve(name payment.Gateway) (Gateway, *gobreaker.CircuitBreaker[*Result], error) {
	g, ok := f.gateways[string(name)]
	if !ok {
		return nil, nil, fmt.Errorf("resolve gateway %q: %w", name, domainErrors.ErrGatewayNotFound)
	}
	return g, f.circuitBreakers[string(name)], nil
}
