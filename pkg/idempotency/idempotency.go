// Package idempotency provides a generic "run once, cache the result"
// primitive over a distributed lock/cache store.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrOperationInProgress signals a concurrent in-flight execution for the same
// key. Callers should back off rather than retry immediately.
var ErrOperationInProgress = errors.New("operation already in progress")

// Store is the external lock/cache state the coordinator runs against.
// TryLock must have atomic conditional-set semantics and must not block.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Config holds coordinator timing parameters.
type Config struct {
	LockTTL   time.Duration
	ResultTTL time.Duration
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		LockTTL:   30 * time.Second,
		ResultTTL: 24 * time.Hour,
	}
}

// Coordinator deduplicates concurrent and repeated executions keyed by an
// opaque idempotency key. Results are JSON-encoded into the store.
type Coordinator[T any] struct {
	store Store
	cfg   Config
}

// New creates a coordinator over the given store.
func New[T any](store Store, cfg Config) *Coordinator[T] {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = DefaultConfig().ResultTTL
	}
	return &Coordinator[T]{store: store, cfg: cfg}
}

// RunOnce returns the cached result for key if one exists, otherwise runs fn
// exactly once under an exclusive TTL-bounded lock and caches its result.
// The lock is released on every exit path after acquisition.
func (c *Coordinator[T]) RunOnce(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	lockKey := "lock:idempotency:" + key
	resultKey := "result:idempotency:" + key

	// Fast path: a completed execution already cached its result.
	cached, ok, err := c.store.Get(ctx, resultKey)
	if err != nil {
		return zero, fmt.Errorf("idempotency cache lookup: %w", err)
	}
	if ok {
		return decode[T](cached)
	}

	acquired, err := c.store.TryLock(ctx, lockKey, c.cfg.LockTTL)
	if err != nil {
		return zero, fmt.Errorf("idempotency lock: %w", err)
	}
	if !acquired {
		return zero, ErrOperationInProgress
	}
	defer c.store.Unlock(ctx, lockKey)

	// Recheck under the lock: a concurrent writer may have finished between
	// the first lookup and lock acquisition.
	cached, ok, err = c.store.Get(ctx, resultKey)
	if err != nil {
		return zero, fmt.Errorf("idempotency cache recheck: %w", err)
	}
	if ok {
		return decode[T](cached)
	}

	result, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return zero, fmt.Errorf("encode idempotency result: %w", err)
	}
	if err := c.store.Set(ctx, resultKey, string(encoded), c.cfg.ResultTTL); err != nil {
		return zero, fmt.Errorf("cache idempotency result: %w", err)
	}
	return result, nil
}

func decode[T any](raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode idempotency result: %w", err)
	}
	return v, nil
}
