package controller

import (
	"net/http"

	paymentApp "github.com/cassiomorais/payment-orchestrator/internal/application/payment"
	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentController handles payment HTTP requests.
type PaymentController struct {
	processPayment *paymentApp.ProcessPaymentUseCase
	paymentRepo    payment.Repository
	logger         zerolog.Logger
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(
	processPayment *paymentApp.ProcessPaymentUseCase,
	paymentRepo payment.Repository,
	logger zerolog.Logger,
) *PaymentController {
	return &PaymentController{
		processPayment: processPayment,
		paymentRepo:    paymentRepo,
		logger:         logger,
	}
}

// ProcessPayment handles POST /api/v1/payments.
//
// The idempotency key is taken from the request body, then from the
// Idempotency-Key header, then generated. A generated key still dedupes
// transport retries within a single call but not client resubmissions.
func (c *PaymentController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}
	if key == "" {
		key = uuid.New().String()
		c.logger.Debug().Str("idempotency_key", key).Msg("Generated idempotency key")
	}

	resp, err := c.processPayment.Execute(r.Context(), paymentApp.ProcessPaymentRequest{
		UserID:         req.UserID,
		OrderID:        req.OrderID,
		AmountCents:    floatToCents(req.Amount),
		Currency:       req.Currency,
		IdempotencyKey: key,
		Gateway:        req.Gateway,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetPayment handles GET /api/v1/payments/{id}.
func (c *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domainErrors.NewValidationError("id", "must be a valid UUID"))
		return
	}

	p, err := c.paymentRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentApp.ToResponse(p))
}

// ListPayments handles GET /api/v1/payments?status=PENDING.
func (c *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	status := payment.Status(r.URL.Query().Get("status"))
	switch status {
	case payment.StatusPending, payment.StatusSuccess, payment.StatusFailed:
	default:
		writeError(w, domainErrors.NewValidationError("status", "must be one of PENDING, SUCCESS, FAILED"))
		return
	}

	payments, err := c.paymentRepo.GetByStatus(r.Context(), status, 100)
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]*paymentApp.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, paymentApp.ToResponse(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": responses,
		"count":    len(responses),
	})
}
