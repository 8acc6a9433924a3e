package payment

import (
	"fmt"

	"github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
)

// Money represents a monetary amount in the smallest currency unit (e.g. cents).
// It is an immutable value; equality is structural.
type Money struct {
	cents    int64
	currency string
}

// NewMoney creates a validated Money value.
func NewMoney(cents int64, currency string) (Money, error) {
	m := Money{cents: cents, currency: currency}
	if err := m.validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func (m Money) validate() error {
	if m.cents <= 0 {
		return errors.NewValidationError("amount", "must be greater than zero")
	}
	if m.currency == "" {
		return errors.NewValidationError("currency", "cannot be empty")
	}
	// Simple currency validation (3-letter ISO code)
	if len(m.currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}

// Cents returns the amount in the smallest currency unit.
func (m Money) Cents() int64 { return m.cents }

// Currency returns the ISO-4217 currency code.
func (m Money) Currency() string { return m.currency }

// Equals reports whether two amounts are structurally equal.
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents && m.currency == other.currency
}

// String returns a human-readable representation of the amount.
func (m Money) String() string {
	whole := m.cents / 100
	frac := m.cents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, m.currency)
}
