package postgres

import (
	"context"
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// AuditStore implements storage.AuditStore using PostgreSQL.
// Append-only; rows are never updated or deleted.
type AuditStore struct {
	pool *Pool
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(pool *Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AuditStore = (*AuditStore)(nil)

// Record appends one execution event.
func (s *AuditStore) Record(ctx context.Context, e *domain.ExecutionEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO execution_events (timestamp_ms, segment, mode, status, request_payload, response_payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := observe("execution_events.insert", func() error {
		_, err := s.pool.Exec(ctx, query,
			e.TimestampMs, e.Segment, e.Mode, e.Status, e.RequestPayload, e.ResponsePayload,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record execution event: %w", err)
	}
	return nil
}

// GetBySegment retrieves events for a segment within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *AuditStore) GetBySegment(ctx context.Context, segment string, start, end int64) ([]*domain.ExecutionEvent, error) {
	query := `
		SELECT timestamp_ms, segment, mode, status, request_payload, response_payload
		FROM execution_events
		WHERE segment = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC
	`

	var events []*domain.ExecutionEvent
	err := observe("execution_events.list_segment", func() error {
		rows, err := s.pool.Query(ctx, query, segment, start, end)
		if err != nil {
			return fmt.Errorf("get execution events by segment: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e domain.ExecutionEvent
			err := rows.Scan(&e.TimestampMs, &e.Segment, &e.Mode, &e.Status, &e.RequestPayload, &e.ResponsePayload)
			if err != nil {
				return fmt.Errorf("scan execution event row: %w", err)
			}
			events = append(events, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
