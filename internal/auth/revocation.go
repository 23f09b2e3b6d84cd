package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records credentials invalidated before natural expiry.
// Add is idempotent; Contains must be safe for concurrent use.
type RevocationStore interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

// MemoryRevocationStore keeps revoked credentials in process memory.
// Entries expire lazily, no background sweep.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemoryRevocationStore creates an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time)}
}

// Add marks a credential revoked until its expiry.
func (s *MemoryRevocationStore) Add(_ context.Context, token string, ttl time.Duration) error {
	expireAt := time.Time{}
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = expireAt
	return nil
}

// Contains reports whether a credential is revoked.
func (s *MemoryRevocationStore) Contains(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	expireAt, ok := s.revoked[token]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !expireAt.IsZero() && time.Now().After(expireAt) {
		s.mu.Lock()
		delete(s.revoked, token)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

const revocationKeyPrefix = "auth:revoked:"

// RedisRevocationStore shares revocations across processes and restarts.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore wraps a redis client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Add marks a credential revoked for the remaining token lifetime.
func (s *RedisRevocationStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired; keep the entry briefly so replays still fail fast
		ttl = time.Minute
	}
	return s.client.Set(ctx, revocationKeyPrefix+token, "1", ttl).Err()
}

// Contains reports whether a credential is revoked.
func (s *RedisRevocationStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
