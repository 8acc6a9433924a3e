package payment

import (
	"errors"
	"testing"
	"time"

	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/google/uuid"
)

func mustMoney(t *testing.T, cents int64) Money {
	t.Helper()
	m, err := NewMoney(cents, "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func mustKey(t *testing.T) IdempotencyKey {
	t.Helper()
	k, err := NewIdempotencyKey(uuid.New().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return k
}

func TestNew_CreatesPendingPayment(t *testing.T) {
	p, err := New("user-1", "order-1", mustMoney(t, 10_00), mustKey(t), GatewayStripe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Status() != StatusPending {
		t.Errorf("expected status PENDING, got %s", p.Status())
	}
	if p.ID() == uuid.Nil {
		t.Error("expected a generated id")
	}
	if p.TransactionID() != "" {
		t.Errorf("expected empty transaction id, got %q", p.TransactionID())
	}
	if p.IsTerminal() {
		t.Error("new payment must not be terminal")
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		orderID string
		gateway Gateway
	}{
		{"missing user", "", "order-1", GatewayStripe},
		{"missing order", "user-1", "", GatewayStripe},
		{"unknown gateway", "user-1", "order-1", Gateway("square")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.userID, tt.orderID, mustMoney(t, 10_00), mustKey(t), tt.gateway)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var ve *domainErrors.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestSucceed_FromPending(t *testing.T) {
	p, _ := New("user-1", "order-1", mustMoney(t, 10_00), mustKey(t), GatewayStripe)

	if err := p.Succeed("ch_abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status() != StatusSuccess {
		t.Errorf("expected SUCCESS, got %s", p.Status())
	}
	if p.TransactionID() != "ch_abc123" {
		t.Errorf("expected transaction id ch_abc123, got %q", p.TransactionID())
	}
	if !p.IsTerminal() {
		t.Error("succeeded payment must be terminal")
	}
}

func TestSucceed_RequiresTransactionID(t *testing.T) {
	p, _ := New("user-1", "order-1", mustMoney(t, 10_00), mustKey(t), GatewayStripe)

	if err := p.Succeed(""); err == nil {
		t.Fatal("expected error for empty transaction id")
	}
	if p.Status() != StatusPending {
		t.Errorf("failed transition must not mutate status, got %s", p.Status())
	}
}

func TestSucceed_FromTerminal_Rejected(t *testing.T) {
	p, _ := New("user-1", "order-1", mustMoney(t, 10_00), mustKey(t), GatewayStripe)
	if err := p.Fail(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := p.Succeed("ch_abc123")
	if !errors.Is(err, domainErrors.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
	if p.Status() != StatusFailed {
		t.Errorf("terminal status must not change, got %s", p.Status())
	}
}

func TestFail_FromPending(t *testing.T) {
	p, _ := New("user-1", "order-1", mustMoney(t, 10_00), mustKey(t), GatewayStripe)

	if err := p.Fail(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status() != StatusFailed {
		t.Errorf("expected FAILED, got %s", p.Status())
	}
	if !p.IsTerminal() {
		t.Error("failed payment must be terminal")
	}
}

func TestFail_FromTerminal_Rejected(t *testing.T) {
	p, _ := New("user-1", "order-1", mustMoney(t, 10_00), mustKey(t), GatewayStripe)
	if err := p.Succeed("ch_abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := p.Fail()
	if !errors.Is(err, domainErrors.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestSupportedGateway(t *testing.T) {
	if !SupportedGateway(GatewayStripe) || !SupportedGateway(GatewayPayPal) {
		t.Error("stripe and paypal must be supported")
	}
	if SupportedGateway(Gateway("square")) || SupportedGateway(Gateway("")) {
		t.Error("unknown gateways must not be supported")
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	snap := Snapshot{
		ID:             uuid.New(),
		UserID:         "user-1",
		OrderID:        "order-1",
		AmountCents:    25_00,
		Currency:       "USD",
		Status:         StatusSuccess,
		IdempotencyKey: "key-1",
		Gateway:        GatewayPayPal,
		TransactionID:  "PAYID-ABC",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	p := Restore(snap)

	if p.ID() != snap.ID {
		t.Errorf("id mismatch: %s != %s", p.ID(), snap.ID)
	}
	if p.Amount().Cents() != 25_00 || p.Amount().Currency() != "USD" {
		t.Errorf("amount mismatch: %s", p.Amount())
	}
	if p.Status() != StatusSuccess || p.TransactionID() != "PAYID-ABC" {
		t.Errorf("state mismatch: %s %q", p.Status(), p.TransactionID())
	}
	if p.IdempotencyKey().Value() != "key-1" {
		t.Errorf("key mismatch: %q", p.IdempotencyKey().Value())
	}
}

func TestNewIdempotencyKey_Empty(t *testing.T) {
	if _, err := NewIdempotencyKey(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
