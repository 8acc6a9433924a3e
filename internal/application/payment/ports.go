package payment

import (
	"context"
)

// PaymentEvent is the domain event emitted after a payment reaches a terminal
// state. Amounts are in the smallest currency unit.
type PaymentEvent struct {
	PaymentID     string
	UserID        string
	OrderID       string
	AmountCents   int64
	Currency      string
	Status        string
	TransactionID string
}

// EventPublisher defines the interface for emitting payment events to the
// event log. At-least-once delivery is assumed; the only contract back to the
// orchestrator is "accepted or returned an error".
type EventPublisher interface {
	SendPaymentEvent(ctx context.Context, event PaymentEvent) error
}
