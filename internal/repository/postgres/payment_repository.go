package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, user_id, order_id, amount, currency, status,
	idempotency_key, gateway, transaction_id, created_at, updated_at`

// PaymentRepository implements payment.Repository using PostgreSQL.
// The idempotency_key column carries a unique constraint; it is the durable
// dedup boundary across the fleet.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Save inserts a new payment.
func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	amountStr := centsToNumericString(p.Amount().Cents())

	var txID *string
	if p.TransactionID() != "" {
		s := p.TransactionID()
		txID = &s
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments
		 (id, user_id, order_id, amount, currency, status,
		  idempotency_key, gateway, transaction_id, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID(), p.UserID(), p.OrderID(), amountStr, p.Amount().Currency(), string(p.Status()),
		p.IdempotencyKey().Value(), string(p.Gateway()), txID, p.CreatedAt(), p.UpdatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// GetByIdempotencyKey retrieves a payment by idempotency key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	return r.scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key))
}

// GetByStatus retrieves payments in the given status, oldest first.
func (r *PaymentRepository) GetByStatus(ctx context.Context, status payment.Status, limit int) ([]*payment.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments by status: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update updates an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	var txID *string
	if p.TransactionID() != "" {
		s := p.TransactionID()
		txID = &s
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status=$1, transaction_id=$2, updated_at=$3 WHERE id=$4`,
		string(p.Status()), txID, p.UpdatedAt(), p.ID(),
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

// scanPayment rehydrates a payment from any source implementing scanner.
func (r *PaymentRepository) scanPayment(s scanner) (*payment.Payment, error) {
	var (
		snap      payment.Snapshot
		amountStr string
		status    string
		gw        string
		txID      *string
	)
	err := s.Scan(
		&snap.ID, &snap.UserID, &snap.OrderID, &amountStr, &snap.Currency, &status,
		&snap.IdempotencyKey, &gw, &txID, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	snap.AmountCents = cents
	snap.Status = payment.Status(status)
	snap.Gateway = payment.Gateway(gw)
	if txID != nil {
		snap.TransactionID = *txID
	}

	return payment.Restore(snap), nil
}
