package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

func pendingRun(runID string) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:  runID,
		Status: domain.RunStatusPending,
		Params: domain.RunParams{
			StrategyID: "EMA_MACD_TREND",
			Segment:    "NIFTY",
			FromMs:     1704067200000,
			ToMs:       1704153600000,
		},
		CreatedAt: 1704067200000,
	}
}

func TestRunStore_CreateAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	rec := pendingRun("run1")

	err := store.Create(ctx, rec)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.RunID != rec.RunID {
		t.Errorf("RunID mismatch: got %s, want %s", got.RunID, rec.RunID)
	}
	if got.Status != domain.RunStatusPending {
		t.Errorf("Status mismatch: got %s, want PENDING", got.Status)
	}
	if got.Params.Segment != "NIFTY" {
		t.Errorf("Segment mismatch: got %s", got.Params.Segment)
	}
}

func TestRunStore_DuplicateKey(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Create(ctx, pendingRun("run1")); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	err := store.Create(ctx, pendingRun("run1"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_NotFound(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err = store.MarkRunning(ctx, "nonexistent", 1)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from MarkRunning, got %v", err)
	}
}

func TestRunStore_Lifecycle(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Create(ctx, pendingRun("run1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.MarkRunning(ctx, "run1", 100); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}
	got, _ := store.GetByID(ctx, "run1")
	if got.Status != domain.RunStatusRunning || got.StartedAt != 100 {
		t.Errorf("Expected RUNNING at 100, got %s at %d", got.Status, got.StartedAt)
	}

	result := &domain.RobustnessResult{PolicyVersion: "v1", Total: 72.5, Grade: "B"}
	if err := store.MarkCompleted(ctx, "run1", 200, result); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	got, _ = store.GetByID(ctx, "run1")
	if got.Status != domain.RunStatusCompleted || got.FinishedAt != 200 {
		t.Errorf("Expected COMPLETED at 200, got %s at %d", got.Status, got.FinishedAt)
	}
	if got.Result == nil || got.Result.Grade != "B" {
		t.Errorf("Result not persisted: %+v", got.Result)
	}
}

func TestRunStore_TerminalIsFrozen(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Create(ctx, pendingRun("run1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.MarkRunning(ctx, "run1", 100); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}
	if err := store.MarkFailed(ctx, "run1", 200, "data fault"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	// Replayed transitions against a terminal record are silent no-ops.
	if err := store.MarkCompleted(ctx, "run1", 300, &domain.RobustnessResult{Grade: "A"}); err != nil {
		t.Fatalf("MarkCompleted on terminal should be nil, got %v", err)
	}
	if err := store.MarkRunning(ctx, "run1", 400); err != nil {
		t.Fatalf("MarkRunning on terminal should be nil, got %v", err)
	}

	got, _ := store.GetByID(ctx, "run1")
	if got.Status != domain.RunStatusFailed {
		t.Errorf("Terminal status was rewritten: got %s", got.Status)
	}
	if got.FinishedAt != 200 || got.Error != "data fault" {
		t.Errorf("Terminal record mutated: finished=%d error=%q", got.FinishedAt, got.Error)
	}
	if got.Result != nil {
		t.Errorf("Result attached to a FAILED record: %+v", got.Result)
	}
}

func TestRunStore_CopyOnReadAndWrite(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	rec := pendingRun("run1")
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mutating the caller's struct after Create must not leak into the store.
	rec.Status = domain.RunStatusCompleted
	got, _ := store.GetByID(ctx, "run1")
	if got.Status != domain.RunStatusPending {
		t.Errorf("External mutation leaked into store: %s", got.Status)
	}

	// Mutating a returned copy must not leak either.
	got.Error = "scribbled"
	again, _ := store.GetByID(ctx, "run1")
	if again.Error != "" {
		t.Errorf("Returned copy aliased store state: %q", again.Error)
	}
}

func TestRunStore_InvalidInput(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Create(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Create(ctx, &domain.RunRecord{RunID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}

func TestRunStore_ConcurrentTransitions(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Create(ctx, pendingRun("run1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.MarkRunning(ctx, "run1", 1); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = store.MarkCompleted(ctx, "run1", int64(i), &domain.RobustnessResult{Grade: "C"})
			} else {
				_ = store.MarkFailed(ctx, "run1", int64(i), "race")
			}
		}(i)
	}
	wg.Wait()

	// Exactly one terminal transition wins; the record stays terminal.
	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Status.Terminal() {
		t.Errorf("Expected a terminal status, got %s", got.Status)
	}
}
