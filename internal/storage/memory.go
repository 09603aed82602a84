package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/token"
)

var _ TokenStore = (*MemoryTokenStore)(nil)

// StoredRecord is a persisted token record with its correlation metadata.
type StoredRecord struct {
	ID          string
	Record      token.Record
	State       string
	PersistedAt time.Time
}

// MemoryTokenStore keeps records in memory. Used for single-instance and
// development deployments, and in tests.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	records []StoredRecord
}

// NewMemoryTokenStore creates an in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// UpsertToken appends a copy of the record.
func (s *MemoryTokenStore) UpsertToken(_ context.Context, rec *token.Record, correlationState string) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, StoredRecord{
		ID:          uuid.NewString(),
		Record:      *rec,
		State:       correlationState,
		PersistedAt: time.Now(),
	})
	return nil
}

// Records returns a snapshot of all persisted records.
func (s *MemoryTokenStore) Records() []StoredRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredRecord, len(s.records))
	copy(out, s.records)
	return out
}
