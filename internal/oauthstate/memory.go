package oauthstate

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	flow       PendingFlow
	expiration time.Time
}

// MemoryStore is a thread-safe in-memory state store with TTL. Suitable for
// single-process deployments and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// Save stores a pending flow with the given TTL.
func (s *MemoryStore) Save(ctx context.Context, flow PendingFlow, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[flow.State] = memoryEntry{
		flow:       flow,
		expiration: s.now().Add(ttl),
	}
	return nil
}

// Consume retrieves and deletes a pending flow if it has not expired.
func (s *MemoryStore) Consume(ctx context.Context, state string) (PendingFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.items[state]
	if !exists {
		return PendingFlow{}, ErrStateNotFound
	}
	delete(s.items, state)

	if s.now().After(entry.expiration) {
		return PendingFlow{}, ErrStateNotFound
	}
	return entry.flow, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
