package clickhouse

import (
	"context"
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// SnapshotSource implements storage.SnapshotSource using ClickHouse.
// Option-chain fields are Nullable: vendors drop fields routinely and
// a missing value must survive the round trip as nil, not zero.
type SnapshotSource struct {
	conn *Conn
}

// NewSnapshotSource creates a new SnapshotSource.
func NewSnapshotSource(conn *Conn) *SnapshotSource {
	return &SnapshotSource{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotSource = (*SnapshotSource)(nil)

// InsertBulk loads snapshots for a segment. Duplicates collapse via
// ReplacingMergeTree on (segment, timestamp_ms).
func (s *SnapshotSource) InsertBulk(ctx context.Context, segment string, snapshots []domain.MarketSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO market_snapshots (
			segment, timestamp_ms, pcr, buy_qty, sell_qty, trade_volume, max_pain, ltp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			segment, uint64(snap.TimestampMs),
			snap.PCR, snap.BuyQty, snap.SellQty, snap.TradeVolume, snap.MaxPain, snap.LTP,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := observe("market_snapshots.insert_bulk", batch.Send); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves snapshots within [start, end] (inclusive).
func (s *SnapshotSource) GetByTimeRange(ctx context.Context, segment string, start, end int64) ([]domain.MarketSnapshot, error) {
	query := `
		SELECT timestamp_ms, pcr, buy_qty, sell_qty, trade_volume, max_pain, ltp
		FROM market_snapshots FINAL
		WHERE segment = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	var snapshots []domain.MarketSnapshot
	err := observe("market_snapshots.get_range", func() error {
		rows, err := s.conn.Query(ctx, query, segment, uint64(start), uint64(end))
		if err != nil {
			return fmt.Errorf("query snapshots by time range: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var snap domain.MarketSnapshot
			var timestampMs uint64

			err := rows.Scan(
				&timestampMs,
				&snap.PCR, &snap.BuyQty, &snap.SellQty, &snap.TradeVolume, &snap.MaxPain, &snap.LTP,
			)
			if err != nil {
				return fmt.Errorf("scan snapshot row: %w", err)
			}

			snap.TimestampMs = int64(timestampMs)
			snapshots = append(snapshots, snap)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return snapshots, nil
}
