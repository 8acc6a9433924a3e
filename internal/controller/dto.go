package controller

import "math"

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money in major units,
// validation tags). Controllers convert them to application requests.

// ProcessPaymentRequest holds the input for processing a payment.
type ProcessPaymentRequest struct {
	UserID         string  `json:"user_id" validate:"required"`
	OrderID        string  `json:"order_id" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Currency       string  `json:"currency" validate:"required,len=3"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
	Gateway        string  `json:"gateway" validate:"required,oneof=stripe paypal"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// floatToCents converts a float major-unit amount to cents.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}
