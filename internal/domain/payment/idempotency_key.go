package payment

import (
	"github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
)

// IdempotencyKey wraps the client-supplied opaque token identifying a logically
// single request across retries. Its contents are never interpreted; the value
// is used verbatim to derive lock, cache and storage keys.
type IdempotencyKey struct {
	value string
}

// NewIdempotencyKey creates a validated IdempotencyKey.
func NewIdempotencyKey(value string) (IdempotencyKey, error) {
	if value == "" {
		return IdempotencyKey{}, errors.NewValidationError("idempotency_key", "cannot be empty")
	}
	return IdempotencyKey{value: value}, nil
}

// Value returns the raw key string.
func (k IdempotencyKey) Value() string { return k.value }
