package gateway

import (
	"context"
	"testing"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactory_WithDefaultGateways(t *testing.T) {
	factory := NewFactory()

	assert.NotNil(t, factory)
	assert.Len(t, factory.gateways, 2) // stripe and paypal
	assert.Len(t, factory.circuitBreakers, 2)
}

func TestFactory_Resolve_Stripe(t *testing.T) {
	factory := NewFactory()

	gw, breaker, err := factory.Resolve(payment.GatewayStripe)
	require.NoError(t, err)
	assert.NotNil(t, gw)
	assert.NotNil(t, breaker)
	assert.Equal(t, "stripe", gw.Name())
}

func TestFactory_Resolve_PayPal(t *testing.T) {
	factory := NewFactory()

	gw, breaker, err := factory.Resolve(payment.GatewayPayPal)
	require.NoError(t, err)
	assert.NotNil(t, gw)
	assert.NotNil(t, breaker)
	assert.Equal(t, "paypal", gw.Name())
}

func TestFactory_Resolve_Unknown_Error(t *testing.T) {
	factory := NewFactory()

	gw, breaker, err := factory.Resolve(payment.Gateway("square"))
	assert.ErrorIs(t, err, domainErrors.ErrGatewayNotFound)
	assert.Nil(t, gw)
	assert.Nil(t, breaker)
}

func TestFactory_Register(t *testing.T) {
	factory := NewFactory()
	factory.Register(NewStripeGateway(WithLatency(0)))

	assert.Contains(t, factory.gateways, "stripe")
	assert.Contains(t, factory.circuitBreakers, "stripe")
}

func TestStripeGateway_Success(t *testing.T) {
	gw := NewStripeGateway(WithLatency(0))

	result, err := gw.ExecutePayment(context.Background(), ExecuteRequest{
		UserID:      "user-1",
		AmountCents: 25_00,
		Currency:    "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result.Status)
	assert.Regexp(t, `^ch_[0-9a-f]{24}$`, result.TransactionID)
}

func TestStripeGateway_AlwaysDeclines(t *testing.T) {
	gw := NewStripeGateway(WithLatency(0), WithDeclineRate(1.0))

	result, err := gw.ExecutePayment(context.Background(), ExecuteRequest{UserID: "user-1"})
	require.NoError(t, err, "a decline is a result, not a transport error")
	assert.Equal(t, ResultFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "declined")
	assert.Empty(t, result.TransactionID)
}

func TestStripeGateway_AlwaysErrors(t *testing.T) {
	gw := NewStripeGateway(WithLatency(0), WithErrorRate(1.0))

	result, err := gw.ExecutePayment(context.Background(), ExecuteRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
	assert.Nil(t, result)
}

func TestPayPalGateway_Success(t *testing.T) {
	gw := NewPayPalGateway(WithLatency(0))

	result, err := gw.ExecutePayment(context.Background(), ExecuteRequest{
		UserID:      "user-1",
		AmountCents: 25_00,
		Currency:    "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result.Status)
	assert.Regexp(t, `^PAYID-[0-9A-F]{17}$`, result.TransactionID)
}

func TestPayPalGateway_AlwaysErrors(t *testing.T) {
	gw := NewPayPalGateway(WithLatency(0), WithErrorRate(1.0))

	result, err := gw.ExecutePayment(context.Background(), ExecuteRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, domainErrors.ErrGatewayTimeout)
	assert.Nil(t, result)
}

func TestSimulateLatency_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewStripeGateway() // default 100ms latency
	_, err := gw.ExecutePayment(ctx, ExecuteRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
