package testutil

import (
	"time"

	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	"github.com/google/uuid"
)

// NewTestPayment builds a PENDING payment with a fresh idempotency key.
func NewTestPayment(userID, orderID string, amountCents int64, gw payment.Gateway) *payment.Payment {
	return NewTestPaymentWithKey(userID, orderID, amountCents, gw, uuid.New().String())
}

// NewTestPaymentWithKey builds a PENDING payment under the given key.
func NewTestPaymentWithKey(userID, orderID string, amountCents int64, gw payment.Gateway, key string) *payment.Payment {
	now := time.Now()
	return payment.Restore(payment.Snapshot{
		ID:             uuid.New(),
		UserID:         userID,
		OrderID:        orderID,
		AmountCents:    amountCents,
		Currency:       "USD",
		Status:         payment.StatusPending,
		IdempotencyKey: key,
		Gateway:        gw,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// NewSucceededPayment builds a SUCCESS payment with a transaction id.
func NewSucceededPayment(userID, orderID string, amountCents int64, gw payment.Gateway, key string) *payment.Payment {
	p := NewTestPaymentWithKey(userID, orderID, amountCents, gw, key)
	if err := p.Succeed("tx-" + uuid.New().String()[:8]); err != nil {
		panic(err)
	}
	return p
}
