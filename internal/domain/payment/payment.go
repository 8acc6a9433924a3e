package payment

import (
	"time"

	"github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the payment status in the state machine
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Gateway identifies an external payment gateway
type Gateway string

const (
	GatewayStripe Gateway = "stripe"
	GatewayPayPal Gateway = "paypal"
)

// SupportedGateway reports whether g belongs to the closed gateway set.
func SupportedGateway(g Gateway) bool {
	switch g {
	case GatewayStripe, GatewayPayPal:
		return true
	}
	return false
}

// Payment is the aggregate root for a payment record. State is mutated only
// through Succeed and Fail; everything else is a read-only projection.
type Payment struct {
	id             uuid.UUID
	userID         string
	orderID        string
	amount         Money
	status         Status
	idempotencyKey IdempotencyKey
	gateway        Gateway
	transactionID  string
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a payment in PENDING with a freshly generated identity.
func New(userID, orderID string, amount Money, key IdempotencyKey, gateway Gateway) (*Payment, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user_id", "user id is required")
	}
	if orderID == "" {
		return nil, errors.NewValidationError("order_id", "order id is required")
	}
	if !SupportedGateway(gateway) {
		return nil, errors.NewValidationError("gateway", "invalid payment gateway")
	}
	if err := amount.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Payment{
		id:             uuid.New(),
		userID:         userID,
		orderID:        orderID,
		amount:         amount,
		status:         StatusPending,
		idempotencyKey: key,
		gateway:        gateway,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Succeed transitions PENDING -> SUCCESS and records the gateway transaction id.
func (p *Payment) Succeed(transactionID string) error {
	if p.status != StatusPending {
		return errors.NewDomainError(
			"invalid_transition",
			"payment can only succeed from PENDING, current status is "+string(p.status),
			errors.ErrInvalidStateTransition,
		)
	}
	if transactionID == "" {
		return errors.NewValidationError("transaction_id", "cannot be empty on success")
	}
	p.status = StatusSuccess
	p.transactionID = transactionID
	p.updatedAt = time.Now()
	return nil
}

// Fail transitions PENDING -> FAILED.
func (p *Payment) Fail() error {
	if p.status != StatusPending {
		return errors.NewDomainError(
			"invalid_transition",
			"payment can only fail from PENDING, current status is "+string(p.status),
			errors.ErrInvalidStateTransition,
		)
	}
	p.status = StatusFailed
	p.updatedAt = time.Now()
	return nil
}

// IsTerminal reports whether no further transition is permitted.
func (p *Payment) IsTerminal() bool {
	return p.status == StatusSuccess || p.status == StatusFailed
}

func (p *Payment) ID() uuid.UUID                   { return p.id }
func (p *Payment) UserID() string                  { return p.userID }
func (p *Payment) OrderID() string                 { return p.orderID }
func (p *Payment) Amount() Money                   { return p.amount }
func (p *Payment) Status() Status                  { return p.status }
func (p *Payment) IdempotencyKey() IdempotencyKey  { return p.idempotencyKey }
func (p *Payment) Gateway() Gateway                { return p.gateway }
func (p *Payment) TransactionID() string           { return p.transactionID }
func (p *Payment) CreatedAt() time.Time            { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time            { return p.updatedAt }

// Snapshot carries already-validated state loaded from durable storage.
type Snapshot struct {
	ID             uuid.UUID
	UserID         string
	OrderID        string
	AmountCents    int64
	Currency       string
	Status         Status
	IdempotencyKey string
	Gateway        Gateway
	TransactionID  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Restore rehydrates a payment from a storage snapshot. It does not re-run
// creation-time business rules; only the repository layer should call it.
func Restore(s Snapshot) *Payment {
	return &Payment{
		id:             s.ID,
		userID:         s.UserID,
		orderID:        s.OrderID,
		amount:         Money{cents: s.AmountCents, currency: s.Currency},
		status:         s.Status,
		idempotencyKey: IdempotencyKey{value: s.IdempotencyKey},
		gateway:        s.Gateway,
		transactionID:  s.TransactionID,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
}
