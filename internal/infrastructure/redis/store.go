package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for safe lock release (only the owner can release)
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Store implements the shared lock/cache contract over Redis. Locks are
// acquired with SET NX and released via a Lua script checking an owner token,
// so an expired lock re-acquired by another process is never deleted here.
type Store struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string // lock key -> owner token
}

// NewStore creates a Store over the given client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		tokens: make(map[string]string),
	}
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// TryLock attempts to acquire an exclusive TTL-bounded lock on key. It does
// not block: a held lock is reported as acquired=false.
func (s *Store) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.New().String()
	acquired, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if acquired {
		s.mu.Lock()
		s.tokens[key] = token
		s.mu.Unlock()
	}
	return acquired, nil
}

// Unlock releases a lock previously acquired by this store instance.
// Releasing a lock that expired or is not held is not an error.
func (s *Store) Unlock(ctx context.Context, key string) error {
	s.mu.Lock()
	token, ok := s.tokens[key]
	delete(s.tokens, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseLockScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	return nil
}
