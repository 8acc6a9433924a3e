package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/google/uuid"
)

// PayPalGateway simulates the PayPal payments API.
type PayPalGateway struct {
	cfg simConfig
}

func NewPayPalGateway(opts ...Option) *PayPalGateway {
	return &PayPalGateway{cfg: newSimConfig(opts...)}
}

func (g *PayPalGateway) Name() string { return "paypal" }

func (g *PayPalGateway) ExecutePayment(ctx context.Context, req ExecuteRequest) (*Result, error) {
	if err := simulateLatency(ctx, g.cfg.latency); err != nil {
		return nil, err
	}

	if rand.Float64() < g.cfg.errorRate {
		return nil, fmt.Errorf("paypal: %w", domainErrors.ErrGatewayTimeout)
	}

	if rand.Float64() < g.cfg.declineRate {
		return &Result{
			Status:       ResultFailed,
			ErrorMessage: fmt.Sprintf("paypal: payment declined for user %s", req.UserID),
		}, nil
	}

	return &Result{
		TransactionID: "PAYID-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:17],
		Status:        ResultSuccess,
	}, nil
}

func simulateLatency(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
