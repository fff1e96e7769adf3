package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
// The primary key on run_id enforces write-once at the database level.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// Insert adds a report. Returns ErrDuplicateKey if run_id exists.
func (s *ReportStore) Insert(ctx context.Context, r *domain.Report) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("marshal report params: %w", err)
	}
	var resultRaw []byte
	if r.Result != nil {
		resultRaw, err = json.Marshal(r.Result)
		if err != nil {
			return fmt.Errorf("marshal report result: %w", err)
		}
	}

	query := `
		INSERT INTO reports (run_id, segment, status, params, result, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err = observe("reports.insert", func() error {
		_, err := s.pool.Exec(ctx, query,
			r.RunID, r.Segment, string(r.Status), params, resultRaw, r.Error,
		)
		return err
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByRunID retrieves a report. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByRunID(ctx context.Context, runID string) (*domain.Report, error) {
	query := `
		SELECT run_id, segment, status, params, result, error
		FROM reports
		WHERE run_id = $1
	`

	var r *domain.Report
	err := observe("reports.get", func() error {
		var err error
		r, err = scanReport(s.pool.QueryRow(ctx, query, runID))
		return err
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get report by run id: %w", err)
	}
	return r, nil
}

// GetBySegment retrieves all reports for a segment, ordered by run ID.
func (s *ReportStore) GetBySegment(ctx context.Context, segment string) ([]*domain.Report, error) {
	query := `
		SELECT run_id, segment, status, params, result, error
		FROM reports
		WHERE segment = $1
		ORDER BY run_id ASC
	`

	var reports []*domain.Report
	err := observe("reports.list_segment", func() error {
		rows, err := s.pool.Query(ctx, query, segment)
		if err != nil {
			return fmt.Errorf("get reports by segment: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanReport(rows)
			if err != nil {
				return fmt.Errorf("scan report row: %w", err)
			}
			reports = append(reports, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// scanReport scans a single row into a Report.
func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		r         domain.Report
		status    string
		paramsRaw []byte
		resultRaw []byte
	)
	err := row.Scan(&r.RunID, &r.Segment, &status, &paramsRaw, &resultRaw, &r.Error)
	if err != nil {
		return nil, err
	}

	r.Status = domain.RunStatus(status)
	if err := json.Unmarshal(paramsRaw, &r.Params); err != nil {
		return nil, fmt.Errorf("unmarshal report params: %w", err)
	}
	if len(resultRaw) > 0 {
		var result domain.RobustnessResult
		if err := json.Unmarshal(resultRaw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal report result: %w", err)
		}
		r.Result = &result
	}
	return &r, nil
}
