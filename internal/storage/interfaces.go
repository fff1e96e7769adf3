package storage

import (
	"context"

	"options-edge-lab/internal/domain"
)

// RunStore provides access to run lifecycle records.
//
// Transitions are PENDING -> RUNNING -> COMPLETED | FAILED. Once a
// record reaches a terminal status it is frozen: Mark* calls against a
// terminal record are no-ops returning nil, so replayed requests and
// duplicate workers cannot rewrite history.
type RunStore interface {
	// Create persists a new PENDING record. Returns ErrDuplicateKey if
	// run_id exists.
	Create(ctx context.Context, rec *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// MarkRunning moves PENDING -> RUNNING and stamps StartedAt.
	// No-op on a terminal record.
	MarkRunning(ctx context.Context, runID string, startedAtMs int64) error

	// MarkCompleted moves RUNNING -> COMPLETED with the result attached.
	// No-op on a terminal record.
	MarkCompleted(ctx context.Context, runID string, finishedAtMs int64, result *domain.RobustnessResult) error

	// MarkFailed moves a non-terminal record to FAILED with the error
	// message attached. No-op on a terminal record.
	MarkFailed(ctx context.Context, runID string, finishedAtMs int64, cause string) error
}

// ReportStore provides access to terminal-state reports. Write-once:
// at most one report ever exists per run ID.
type ReportStore interface {
	// Insert adds a report. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Report) error

	// GetByRunID retrieves a report. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.Report, error)

	// GetBySegment retrieves all reports for a segment, ordered by run ID.
	GetBySegment(ctx context.Context, segment string) ([]*domain.Report, error)
}

// AuditStore records execution events. Best-effort: callers log and
// continue when Record fails; an audit outage never blocks a run.
type AuditStore interface {
	// Record appends one execution event.
	Record(ctx context.Context, e *domain.ExecutionEvent) error

	// GetBySegment retrieves events for a segment within [start, end]
	// (inclusive), ordered by timestamp ASC.
	GetBySegment(ctx context.Context, segment string, start, end int64) ([]*domain.ExecutionEvent, error)
}

// CandleSource serves historical candles for one segment, ordered by
// timestamp ASC with strictly increasing timestamps.
type CandleSource interface {
	// GetByTimeRange retrieves candles within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, segment string, start, end int64) ([]domain.Candle, error)
}

// SnapshotSource serves option-chain snapshots for one segment, ordered
// by timestamp ASC.
type SnapshotSource interface {
	// GetByTimeRange retrieves snapshots within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, segment string, start, end int64) ([]domain.MarketSnapshot, error)
}
