package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultInMemoryCapacity bounds the number of claims held by the default store
const DefaultInMemoryCapacity = 100_000

// InMemoryIdempotencyStore keeps claims in a bounded LRU keyed by idempotency
// key, each holding its expiry. When the cache is full the least recently
// claimed key is forgotten first. State is per process, so it only fits
// single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	mu     sync.Mutex
	claims *lru.Cache[string, time.Time]
}

// NewInMemoryIdempotencyStore creates a store holding DefaultInMemoryCapacity claims
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store, err := NewBoundedIdempotencyStore(DefaultInMemoryCapacity)
	if err != nil {
		panic(err)
	}
	return store
}

// NewBoundedIdempotencyStore creates a store holding at most capacity claims
func NewBoundedIdempotencyStore(capacity int) (*InMemoryIdempotencyStore, error) {
	claims, err := lru.New[string, time.Time](capacity)
	if err != nil {
		return nil, fmt.Errorf("idempotency store capacity %d: %w", capacity, err)
	}
	return &InMemoryIdempotencyStore{claims: claims}, nil
}

// MarkProcessed claims key for ttl. It returns false while an earlier claim is live.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiresAt, ok := s.claims.Peek(key); ok && now.Before(expiresAt) {
		return false, nil
	}
	s.claims.Add(key, now.Add(ttl))
	return true, nil
}

// IsProcessed reports whether key holds a live claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	expiresAt, ok := s.claims.Peek(key)
	return ok && time.Now().Before(expiresAt), nil
}

// Release drops the claim on key
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims.Remove(key)
	return nil
}

// Close forgets every claim
func (s *InMemoryIdempotencyStore) Close() error {
	s.claims.Purge()
	return nil
}

// Size returns the number of held claims, expired ones included until evicted or reclaimed
func (s *InMemoryIdempotencyStore) Size() int {
	return s.claims.Len()
}

var _ IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
