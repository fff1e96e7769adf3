package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
//
// Params and Result travel as JSONB: they are read back whole, never
// queried field-by-field, and the engine config's free-form Params map
// makes a column-per-field layout a moving target.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Create persists a new PENDING record. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Create(ctx context.Context, rec *domain.RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal run params: %w", err)
	}

	query := `
		INSERT INTO runs (run_id, status, params, created_at, started_at, finished_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err = observe("runs.insert", func() error {
		_, err := s.pool.Exec(ctx, query,
			rec.RunID, string(rec.Status), params,
			rec.CreatedAt, rec.StartedAt, rec.FinishedAt, rec.Error,
		)
		return err
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT run_id, status, params, created_at, started_at, finished_at, result, error
		FROM runs
		WHERE run_id = $1
	`

	var (
		rec       domain.RunRecord
		status    string
		paramsRaw []byte
		resultRaw []byte
	)
	err := observe("runs.get", func() error {
		return s.pool.QueryRow(ctx, query, runID).Scan(
			&rec.RunID, &status, &paramsRaw,
			&rec.CreatedAt, &rec.StartedAt, &rec.FinishedAt,
			&resultRaw, &rec.Error,
		)
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}

	rec.Status = domain.RunStatus(status)
	if err := json.Unmarshal(paramsRaw, &rec.Params); err != nil {
		return nil, fmt.Errorf("unmarshal run params: %w", err)
	}
	if len(resultRaw) > 0 {
		var result domain.RobustnessResult
		if err := json.Unmarshal(resultRaw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal run result: %w", err)
		}
		rec.Result = &result
	}
	return &rec, nil
}

// MarkRunning moves PENDING -> RUNNING. No-op on a terminal record.
func (s *RunStore) MarkRunning(ctx context.Context, runID string, startedAtMs int64) error {
	query := `
		UPDATE runs
		SET status = $2, started_at = $3
		WHERE run_id = $1 AND status NOT IN ('COMPLETED', 'FAILED')
	`

	var tag pgconn.CommandTag
	err := observe("runs.mark_running", func() error {
		var err error
		tag, err = s.pool.Exec(ctx, query, runID, string(domain.RunStatusRunning), startedAtMs)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrTerminal(ctx, runID)
	}
	return nil
}

// MarkCompleted moves RUNNING -> COMPLETED with the result attached.
// No-op on a terminal record.
func (s *RunStore) MarkCompleted(ctx context.Context, runID string, finishedAtMs int64, result *domain.RobustnessResult) error {
	var resultRaw []byte
	if result != nil {
		var err error
		resultRaw, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal run result: %w", err)
		}
	}

	query := `
		UPDATE runs
		SET status = $2, finished_at = $3, result = $4
		WHERE run_id = $1 AND status NOT IN ('COMPLETED', 'FAILED')
	`

	var tag pgconn.CommandTag
	err := observe("runs.mark_completed", func() error {
		var err error
		tag, err = s.pool.Exec(ctx, query, runID, string(domain.RunStatusCompleted), finishedAtMs, resultRaw)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark run completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrTerminal(ctx, runID)
	}
	return nil
}

// MarkFailed moves a non-terminal record to FAILED. No-op on a terminal record.
func (s *RunStore) MarkFailed(ctx context.Context, runID string, finishedAtMs int64, cause string) error {
	query := `
		UPDATE runs
		SET status = $2, finished_at = $3, error = $4
		WHERE run_id = $1 AND status NOT IN ('COMPLETED', 'FAILED')
	`

	var tag pgconn.CommandTag
	err := observe("runs.mark_failed", func() error {
		var err error
		tag, err = s.pool.Exec(ctx, query, runID, string(domain.RunStatusFailed), finishedAtMs, cause)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrTerminal(ctx, runID)
	}
	return nil
}

// missingOrTerminal distinguishes a zero-row update: ErrNotFound when the
// record does not exist, nil when it is already terminal.
func (s *RunStore) missingOrTerminal(ctx context.Context, runID string) error {
	var status string
	err := s.pool.QueryRow(ctx, `SELECT status FROM runs WHERE run_id = $1`, runID).Scan(&status)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check run status: %w", err)
	}
	return nil
}
