package gateway

import (
	"context"
)

// ResultStatus is the terminal outcome reported by a gateway.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "SUCCESS"
	ResultFailed  ResultStatus = "FAILED"
)

// Result is the outcome of a single gateway invocation. A FAILED result is a
// business decline; transport faults are reported as errors instead and may be
// retried by the caller.
type Result struct {
	TransactionID string
	Status        ResultStatus
	ErrorMessage  string
}

// ExecuteRequest carries the payment execution input for a gateway.
type ExecuteRequest struct {
	UserID         string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

// Gateway is the payment-execution capability, one implementation per variant.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() string
	// ExecutePayment processes a payment through the gateway.
	ExecutePayment(ctx context.Context, req ExecuteRequest) (*Result, error)
}
