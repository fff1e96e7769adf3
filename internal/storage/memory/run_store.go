package memory

import (
	"context"
	"sync"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

// Create persists a new PENDING record. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Create(_ context.Context, rec *domain.RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recCopy := *rec
	s.data[rec.RunID] = &recCopy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	recCopy := *rec
	return &recCopy, nil
}

// MarkRunning moves PENDING -> RUNNING. No-op on a terminal record.
func (s *RunStore) MarkRunning(_ context.Context, runID string, startedAtMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.data[runID]
	if !exists {
		return storage.ErrNotFound
	}
	if rec.Status.Terminal() {
		return nil
	}

	rec.Status = domain.RunStatusRunning
	rec.StartedAt = startedAtMs
	return nil
}

// MarkCompleted moves RUNNING -> COMPLETED with the result attached.
// No-op on a terminal record.
func (s *RunStore) MarkCompleted(_ context.Context, runID string, finishedAtMs int64, result *domain.RobustnessResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.data[runID]
	if !exists {
		return storage.ErrNotFound
	}
	if rec.Status.Terminal() {
		return nil
	}

	rec.Status = domain.RunStatusCompleted
	rec.FinishedAt = finishedAtMs
	if result != nil {
		resultCopy := *result
		rec.Result = &resultCopy
	}
	return nil
}

// MarkFailed moves a non-terminal record to FAILED. No-op on a terminal record.
func (s *RunStore) MarkFailed(_ context.Context, runID string, finishedAtMs int64, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.data[runID]
	if !exists {
		return storage.ErrNotFound
	}
	if rec.Status.Terminal() {
		return nil
	}

	rec.Status = domain.RunStatusFailed
	rec.FinishedAt = finishedAtMs
	rec.Error = cause
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RunStore = (*RunStore)(nil)
