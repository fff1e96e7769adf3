package memory

import (
	"context"
	"sort"
	"sync"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// AuditStore is an in-memory implementation of storage.AuditStore.
type AuditStore struct {
	mu     sync.RWMutex
	events []domain.ExecutionEvent
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Record appends one execution event.
func (s *AuditStore) Record(_ context.Context, e *domain.ExecutionEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *e)
	return nil
}

// GetBySegment retrieves events for a segment within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *AuditStore) GetBySegment(_ context.Context, segment string, start, end int64) ([]*domain.ExecutionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExecutionEvent
	for i := range s.events {
		e := s.events[i]
		if e.Segment == segment && e.TimestampMs >= start && e.TimestampMs <= end {
			eventCopy := e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AuditStore = (*AuditStore)(nil)
