package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/google/uuid"
)

// StripeGateway simulates the Stripe charge API.
type StripeGateway struct {
	cfg simConfig
}

func NewStripeGateway(opts ...Option) *StripeGateway {
	return &StripeGateway{cfg: newSimConfig(opts...)}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) ExecutePayment(ctx context.Context, req ExecuteRequest) (*Result, error) {
	if err := simulateLatency(ctx, g.cfg.latency); err != nil {
		return nil, err
	}

	if rand.Float64() < g.cfg.errorRate {
		return nil, fmt.Errorf("stripe: %w", domainErrors.ErrGatewayUnavailable)
	}

	if rand.Float64() < g.cfg.declineRate {
		return &Result{
			Status:       ResultFailed,
			ErrorMessage: fmt.Sprintf("stripe: charge declined for user %s", req.UserID),
		}, nil
	}

	return &Result{
		TransactionID: "ch_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24],
		Status:        ResultSuccess,
	}, nil
}
