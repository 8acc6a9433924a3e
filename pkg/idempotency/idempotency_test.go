package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store; TTLs are accepted but not enforced.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
	locks  map[string]bool

	getErr  error
	lockErr error
}

func newMemStore() *memStore {
	return &memStore{
		values: make(map[string]string),
		locks:  make(map[string]bool),
	}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memStore) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.lockErr != nil {
		return false, s.lockErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	return true, nil
}

func (s *memStore) Unlock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

type testResult struct {
	Value string `json:"value"`
}

func TestRunOnce_ExecutesAndCaches(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	coord := New[testResult](store, DefaultConfig())

	calls := 0
	fn := func(ctx context.Context) (testResult, error) {
		calls++
		return testResult{Value: "done"}, nil
	}

	first, err := coord.RunOnce(ctx, "key-1", fn)
	require.NoError(t, err)
	assert.Equal(t, "done", first.Value)
	assert.Equal(t, 1, calls)

	second, err := coord.RunOnce(ctx, "key-1", fn)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestRunOnce_DistinctKeysExecuteIndependently(t *testing.T) {
	ctx := context.Background()
	coord := New[testResult](newMemStore(), DefaultConfig())

	calls := 0
	fn := func(ctx context.Context) (testResult, error) {
		calls++
		return testResult{Value: "done"}, nil
	}

	_, err := coord.RunOnce(ctx, "key-1", fn)
	require.NoError(t, err)
	_, err = coord.RunOnce(ctx, "key-2", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunOnce_LockHeld_ReturnsInProgress(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.locks["lock:idempotency:key-1"] = true
	coord := New[testResult](store, DefaultConfig())

	_, err := coord.RunOnce(ctx, "key-1", func(ctx context.Context) (testResult, error) {
		t.Fatal("fn must not run while the lock is held")
		return testResult{}, nil
	})
	assert.ErrorIs(t, err, ErrOperationInProgress)
}

func TestRunOnce_FailedExecutionIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	coord := New[testResult](store, DefaultConfig())

	boom := errors.New("downstream unavailable")
	calls := 0

	_, err := coord.RunOnce(ctx, "key-1", func(ctx context.Context) (testResult, error) {
		calls++
		return testResult{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, store.locks["lock:idempotency:key-1"], "lock must be released after failure")

	// A failed execution leaves no cached result, so a retry runs again.
	result, err := coord.RunOnce(ctx, "key-1", func(ctx context.Context) (testResult, error) {
		calls++
		return testResult{Value: "recovered"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Value)
	assert.Equal(t, 2, calls)
}

func TestRunOnce_RecheckUnderLock(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.values["result:idempotency:key-1"] = `{"value":"concurrent"}`

	// Simulate a concurrent writer finishing between the first lookup and the
	// lock acquisition: the first Get misses, the recheck under the lock hits.
	first := true
	coord := New[testResult](&toggleStore{memStore: store, missFirst: &first}, DefaultConfig())

	result, err := coord.RunOnce(ctx, "key-1", func(ctx context.Context) (testResult, error) {
		t.Fatal("fn must not run when the recheck hits")
		return testResult{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "concurrent", result.Value)
}

func TestRunOnce_StoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	coord := New[testResult](store, DefaultConfig())

	_, err := coord.RunOnce(ctx, "key-1", func(ctx context.Context) (testResult, error) {
		return testResult{}, nil
	})
	assert.Error(t, err)
}

// toggleStore misses the first Get and delegates afterwards.
type toggleStore struct {
	*memStore
	missFirst *bool
}

func (s *toggleStore) Get(ctx context.Context, key string) (string, bool, error) {
	if *s.missFirst {
		*s.missFirst = false
		return "", false, nil
	}
	return s.memStore.Get(ctx, key)
}
