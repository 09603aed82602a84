package state

import (
	"context"
	"sync"
	"time"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/crypto"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	issuedAt  time.Time
	expiresAt time.Time
}

// MemoryStore keeps issued states in a mutex-guarded map. Suitable for a
// single broker instance; multi-instance deployments use the Firestore
// backend.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets a custom clock function (for testing).
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-memory state store with the given TTL.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue generates a random state and records it.
func (s *MemoryStore) Issue(ctx context.Context) (string, error) {
	token, err := crypto.GenerateSecureToken()
	if err != nil {
		return "", err
	}
	if err := s.Track(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// Track records a caller-supplied state.
func (s *MemoryStore) Track(_ context.Context, state string) error {
	now := s.now()
	s.mu.Lock()
	s.entries[state] = memoryEntry{issuedAt: now, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Consume deletes the state and reports whether it was present and unexpired.
// Deletion happens on every lookup, so a replayed callback with the same
// state fails on its second attempt.
func (s *MemoryStore) Consume(_ context.Context, state string) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return false
	}
	delete(s.entries, state)
	return !s.now().After(entry.expiresAt)
}

// CleanupExpired evicts expired unconsumed entries.
func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for state, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, state)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked states.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
