package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	"github.com/cassiomorais/payment-orchestrator/internal/infrastructure/gateway"
	"github.com/cassiomorais/payment-orchestrator/internal/infrastructure/observability"
	"github.com/cassiomorais/payment-orchestrator/pkg/idempotency"
	"github.com/cassiomorais/payment-orchestrator/pkg/retry"
	"github.com/rs/zerolog"
)

const (
	lockKeyPrefix  = "lock:payment:"
	cacheKeyPrefix = "cache:payment:"

	// failedResponseError is the fixed user-visible error string for a
	// gateway-declined payment.
	failedResponseError = "Payment processing failed"
)

// ProcessPaymentRequest is the validated inbound request.
type ProcessPaymentRequest struct {
	UserID         string
	OrderID        string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Gateway        string
}

// AmountPayload is the wire representation of a monetary amount (major units).
type AmountPayload struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PaymentResponse is the outbound response; it is also the value cached under
// cache:payment:<key>, so repeated calls return it verbatim.
type PaymentResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	OrderID       string        `json:"order_id"`
	Amount        AmountPayload `json:"amount"`
	Status        string        `json:"status"`
	TransactionID string        `json:"transaction_id"`
	Error         string        `json:"error"`
}

// Config holds the orchestration timing parameters.
type Config struct {
	LockTTL    time.Duration
	CacheTTL   time.Duration
	MaxRetries uint
	RetryDelay time.Duration
}

// DefaultConfig returns the default orchestration configuration.
func DefaultConfig() Config {
	return Config{
		LockTTL:    30 * time.Second,
		CacheTTL:   1 * time.Hour,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// ProcessPaymentUseCase orchestrates the end-to-end payment flow: response
// cache, distributed lock, dedup lookup, aggregate creation, gateway
// invocation with retry, state transition, persistence, event emission.
type ProcessPaymentUseCase struct {
	paymentRepo payment.Repository
	store       idempotency.Store
	events      EventPublisher
	gateways    *gateway.Factory
	logger      zerolog.Logger
	metrics     *observability.Metrics
	cfg         Config
}

// NewProcessPaymentUseCase creates a new ProcessPaymentUseCase.
func NewProcessPaymentUseCase(
	paymentRepo payment.Repository,
	store idempotency.Store,
	events EventPublisher,
	gateways *gateway.Factory,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	cfg Config,
) *ProcessPaymentUseCase {
	if cfg.LockTTL <= 0 {
		cfg = DefaultConfig()
	}
	return &ProcessPaymentUseCase{
		paymentRepo: paymentRepo,
		store:       store,
		events:      events,
		gateways:    gateways,
		logger:      logger,
		metrics:     metrics,
		cfg:         cfg,
	}
}

// Execute processes a single payment request exactly-once-in-effect.
func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, req ProcessPaymentRequest) (*PaymentResponse, error) {
	start := time.Now()

	key, err := payment.NewIdempotencyKey(req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	lockKey := lockKeyPrefix + key.Value()
	cacheKey := cacheKeyPrefix + key.Value()

	// Fast path: a completed request already cached its response.
	if resp, ok, err := uc.cachedResponse(ctx, cacheKey); err != nil {
		return nil, err
	} else if ok {
		uc.metrics.CacheLookups.WithLabelValues("hit").Inc()
		uc.logger.Info().Str("idempotency_key", key.Value()).Msg("Cache hit for payment")
		return resp, nil
	}
	uc.metrics.CacheLookups.WithLabelValues("miss").Inc()

	acquired, err := uc.store.TryLock(ctx, lockKey, uc.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire payment lock: %w", err)
	}
	if !acquired {
		uc.metrics.LockContention.Inc()
		return nil, domainErrors.NewDomainError(
			"idempotency_conflict",
			"request already being processed",
			domainErrors.ErrOperationInProgress,
		)
	}
	defer uc.releaseLock(ctx, lockKey)

	// Dedup lookup: a prior attempt may have completed while our cache was
	// cold. Its record is projected, never re-executed.
	existing, err := uc.paymentRepo.GetByIdempotencyKey(ctx, key.Value())
	if err != nil && !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		uc.logger.Info().
			Str("payment_id", existing.ID().String()).
			Str("idempotency_key", key.Value()).
			Msg("Idempotent payment found")
		resp := ToResponse(existing)
		if err := uc.cacheResponse(ctx, cacheKey, resp); err != nil {
			return nil, err
		}
		return resp, nil
	}

	amount, err := payment.NewMoney(req.AmountCents, req.Currency)
	if err != nil {
		return nil, err
	}
	p, err := payment.New(req.UserID, req.OrderID, amount, key, payment.Gateway(req.Gateway))
	if err != nil {
		return nil, err
	}

	// Durability before the external side effect: a crash after this point
	// leaves a recoverable PENDING trace.
	if err := uc.paymentRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}
	uc.logger.Info().Str("payment_id", p.ID().String()).Msg("Payment created")

	result, err := uc.invokeGateway(ctx, p, key)
	if err != nil {
		// All attempts failed. The record deliberately stays PENDING; the
		// reconciler reports such records instead of guessing a terminal state.
		uc.metrics.PaymentsTotal.WithLabelValues(string(p.Gateway()), "ERROR").Inc()
		return nil, domainErrors.NewDomainError(
			"gateway_exhausted",
			fmt.Sprintf("gateway %s failed after %d attempts", p.Gateway(), uc.cfg.MaxRetries),
			err,
		)
	}

	if result.Status == gateway.ResultSuccess {
		if err := p.Succeed(result.TransactionID); err != nil {
			return nil, err
		}
	} else {
		if err := p.Fail(); err != nil {
			return nil, err
		}
	}

	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	uc.logger.Info().
		Str("payment_id", p.ID().String()).
		Str("status", string(p.Status())).
		Msg("Payment updated")

	if err := uc.events.SendPaymentEvent(ctx, PaymentEvent{
		PaymentID:     p.ID().String(),
		UserID:        p.UserID(),
		OrderID:       p.OrderID(),
		AmountCents:   p.Amount().Cents(),
		Currency:      p.Amount().Currency(),
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
	}); err != nil {
		return nil, fmt.Errorf("publish payment event: %w", err)
	}

	uc.metrics.PaymentsTotal.WithLabelValues(string(p.Gateway()), string(p.Status())).Inc()
	uc.metrics.PaymentDuration.WithLabelValues(string(p.Gateway()), string(p.Status())).
		Observe(time.Since(start).Seconds())

	resp := ToResponse(p)
	if err := uc.cacheResponse(ctx, cacheKey, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// invokeGateway resolves the strategy and invokes it through its circuit
// breaker with exponential-backoff retry. A FAILED result is a terminal
// business outcome and is not retried.
func (uc *ProcessPaymentUseCase) invokeGateway(ctx context.Context, p *payment.Payment, key payment.IdempotencyKey) (*gateway.Result, error) {
	gw, breaker, err := uc.gateways.Resolve(p.Gateway())
	if err != nil {
		return nil, err
	}

	return retry.DoWithResult(ctx, retry.Config{
		MaxAttempts:  uc.cfg.MaxRetries,
		InitialDelay: uc.cfg.RetryDelay,
		OnRetry: func(attempt uint, err error) {
			uc.metrics.GatewayRetries.WithLabelValues(gw.Name()).Inc()
			uc.logger.Warn().
				Err(err).
				Uint("attempt", attempt).
				Str("gateway", gw.Name()).
				Str("payment_id", p.ID().String()).
				Msg("Gateway invocation failed, retrying")
		},
	}, func() (*gateway.Result, error) {
		result, err := breaker.Execute(func() (*gateway.Result, error) {
			return gw.ExecutePayment(ctx, gateway.ExecuteRequest{
				UserID:         p.UserID(),
				AmountCents:    p.Amount().Cents(),
				Currency:       p.Amount().Currency(),
				IdempotencyKey: key.Value(),
			})
		})
		if err != nil {
			uc.metrics.GatewayErrors.WithLabelValues(gw.Name(), "invocation").Inc()
			return nil, fmt.Errorf("gateway call: %w", err)
		}
		return result, nil
	})
}

func (uc *ProcessPaymentUseCase) cachedResponse(ctx context.Context, cacheKey string) (*PaymentResponse, bool, error) {
	raw, ok, err := uc.store.Get(ctx, cacheKey)
	if err != nil {
		return nil, false, fmt.Errorf("response cache lookup: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var resp PaymentResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, true, nil
}

func (uc *ProcessPaymentUseCase) cacheResponse(ctx context.Context, cacheKey string, resp *PaymentResponse) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := uc.store.Set(ctx, cacheKey, string(encoded), uc.cfg.CacheTTL); err != nil {
		return fmt.Errorf("cache response: %w", err)
	}
	return nil
}

func (uc *ProcessPaymentUseCase) releaseLock(ctx context.Context, lockKey string) {
	if err := uc.store.Unlock(ctx, lockKey); err != nil {
		uc.logger.Error().Err(err).Str("lock_key", lockKey).Msg("Failed to release payment lock")
	}
}

// ToResponse projects a payment aggregate into its wire representation.
func ToResponse(p *payment.Payment) *PaymentResponse {
	errMsg := ""
	if p.Status() == payment.StatusFailed {
		errMsg = failedResponseError
	}
	return &PaymentResponse{
		ID:      p.ID().String(),
		UserID:  p.UserID(),
		OrderID: p.OrderID(),
		Amount: AmountPayload{
			Amount:   float64(p.Amount().Cents()) / 100.0,
			Currency: p.Amount().Currency(),
		},
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
		Error:         errMsg,
	}
}
