package clickhouse

import (
	"context"
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// CandleSource implements storage.CandleSource using ClickHouse.
// Candles live in a MergeTree ordered by (segment, timestamp_ms), so
// range reads come back already sorted.
type CandleSource struct {
	conn *Conn
}

// NewCandleSource creates a new CandleSource.
func NewCandleSource(conn *Conn) *CandleSource {
	return &CandleSource{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleSource = (*CandleSource)(nil)

// InsertBulk loads candles for a segment. Duplicate (segment, timestamp_ms)
// pairs collapse via ReplacingMergeTree; re-ingesting a day is safe.
func (s *CandleSource) InsertBulk(ctx context.Context, segment string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			segment, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			segment, uint64(c.TimestampMs),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := observe("candles.insert_bulk", batch.Send); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves candles within [start, end] (inclusive).
func (s *CandleSource) GetByTimeRange(ctx context.Context, segment string, start, end int64) ([]domain.Candle, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume
		FROM candles FINAL
		WHERE segment = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	var candles []domain.Candle
	err := observe("candles.get_range", func() error {
		rows, err := s.conn.Query(ctx, query, segment, uint64(start), uint64(end))
		if err != nil {
			return fmt.Errorf("query candles by time range: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c domain.Candle
			var timestampMs uint64

			err := rows.Scan(&timestampMs, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
			if err != nil {
				return fmt.Errorf("scan candle row: %w", err)
			}

			c.TimestampMs = int64(timestampMs)
			candles = append(candles, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return candles, nil
}
