package memory

import (
	"context"
	"sync"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps placement keys in memory for development and tests.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]ports.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: map[string]ports.IdempotencyRecord{}}
}

// Get returns the stored record for the key, or nil when absent.
func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

// Save claims the key. The claim is released if the surrounding unit of work rolls back.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Key]; ok {
		return ports.ErrIdempotencyKeyTaken
	}
	s.records[record.Key] = record
	key := record.Key
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.records, key)
	})
	return nil
}

func (s *IdempotencyStore) ForgetOrder(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var released []ports.IdempotencyRecord
	for key, record := range s.records {
		if record.OrderID == orderID {
			released = append(released, record)
			delete(s.records, key)
		}
	}
	if len(released) == 0 {
		return nil
	}
	memtx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, record := range released {
			s.records[record.Key] = record
		}
	})
	return nil
}
