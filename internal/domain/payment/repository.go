package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence.
// Uniqueness of the idempotency key is enforced here, not by the aggregate.
type Repository interface {
	// Save inserts a new payment
	Save(ctx context.Context, payment *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetByIdempotencyKey retrieves a payment by idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)

	// GetByStatus retrieves payments in the given status, oldest first
	GetByStatus(ctx context.Context, status Status, limit int) ([]*Payment, error)

	// Update updates an existing payment
	Update(ctx context.Context, payment *Payment) error
}
