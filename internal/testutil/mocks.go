package testutil

import (
	"context"
	"sync"
	"time"

	paymentApp "github.com/cassiomorais/payment-orchestrator/internal/application/payment"
	domainErrors "github.com/cassiomorais/payment-orchestrator/internal/domain/errors"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	"github.com/cassiomorais/payment-orchestrator/internal/infrastructure/gateway"
	"github.com/google/uuid"
)

// --- Payment Repository Mock ---

// MockPaymentRepository is a mock implementation of payment.Repository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
	byKey    map[string]*payment.Payment

	SaveFunc                func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*payment.Payment, error)
	GetByStatusFunc         func(ctx context.Context, status payment.Status, limit int) ([]*payment.Payment, error)
	UpdateFunc              func(ctx context.Context, p *payment.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
		byKey:    make(map[string]*payment.Payment),
	}
}

// AddPayment pre-populates the mock with a payment.
func (m *MockPaymentRepository) AddPayment(p *payment.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID()] = p
	m.byKey[p.IdempotencyKey().Value()] = p
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byKey[p.IdempotencyKey().Value()]; exists {
		return domainErrors.ErrDuplicateIdempotencyKey
	}
	m.payments[p.ID()] = p
	m.byKey[p.IdempotencyKey().Value()] = p
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byKey[key]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) GetByStatus(ctx context.Context, status payment.Status, limit int) ([]*payment.Payment, error) {
	if m.GetByStatusFunc != nil {
		return m.GetByStatusFunc(ctx, status, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*payment.Payment
	for _, p := range m.payments {
		if p.Status() == status {
			result = append(result, p)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID()]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	m.payments[p.ID()] = p
	return nil
}

// --- Idempotency Store Mock ---

// MockStore is an in-memory implementation of idempotency.Store. TTLs are
// recorded but never enforced; tests control expiry by deleting keys.
type MockStore struct {
	mu     sync.Mutex
	values map[string]string
	locks  map[string]bool

	GetFunc     func(ctx context.Context, key string) (string, bool, error)
	SetFunc     func(ctx context.Context, key, value string, ttl time.Duration) error
	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	UnlockFunc  func(ctx context.Context, key string) error
}

func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string]string),
		locks:  make(map[string]bool),
	}
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MockStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MockStore) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockStore) Unlock(ctx context.Context, key string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

// LockHeld reports whether key is currently locked.
func (m *MockStore) LockHeld(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}

// Value returns the stored value for key.
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// HoldLock marks key as locked by another owner.
func (m *MockStore) HoldLock(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = true
}

// --- Event Publisher Mock ---

// MockEventPublisher records published payment events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []paymentApp.PaymentEvent

	SendFunc func(ctx context.Context, event paymentApp.PaymentEvent) error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) SendPaymentEvent(ctx context.Context, event paymentApp.PaymentEvent) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of all recorded events.
func (m *MockEventPublisher) Events() []paymentApp.PaymentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]paymentApp.PaymentEvent(nil), m.events...)
}

// --- Gateway Mock ---

// MockGateway returns scripted results in order, then repeats the last one.
type MockGateway struct {
	mu      sync.Mutex
	name    string
	results []ScriptedResult
	calls   int
}

// ScriptedResult is a single scripted gateway response.
type ScriptedResult struct {
	Result *gateway.Result
	Err    error
}

func NewMockGateway(name string, results ...ScriptedResult) *MockGateway {
	return &MockGateway{name: name, results: results}
}

func (m *MockGateway) Name() string { return m.name }

func (m *MockGateway) ExecutePayment(ctx context.Context, req gateway.ExecuteRequest) (*gateway.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	m.calls++
	r := m.results[idx]
	return r.Result, r.Err
}

// Calls returns the number of times ExecutePayment was invoked.
func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
