package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-edge-lab/internal/domain"
)

func TestCandleSource_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewCandleSource(conn)
	ctx := context.Background()

	candles := []domain.Candle{
		{TimestampMs: 1000, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1500},
		{TimestampMs: 2000, Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 1800},
		{TimestampMs: 3000, Open: 101.5, High: 103, Low: 101, Close: 102, Volume: 900},
	}

	require.NoError(t, src.InsertBulk(ctx, "NIFTY", candles))

	got, err := src.GetByTimeRange(ctx, "NIFTY", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
	assert.Equal(t, 100.5, got[0].Close)
	assert.Equal(t, 1800.0, got[1].Volume)
}

func TestCandleSource_SegmentIsolation(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewCandleSource(conn)
	ctx := context.Background()

	require.NoError(t, src.InsertBulk(ctx, "NIFTY", []domain.Candle{{TimestampMs: 1000, Close: 1}}))
	require.NoError(t, src.InsertBulk(ctx, "BANKNIFTY", []domain.Candle{{TimestampMs: 1000, Close: 2}}))

	got, err := src.GetByTimeRange(ctx, "NIFTY", 0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Close)
}

func TestCandleSource_ReingestCollapses(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewCandleSource(conn)
	ctx := context.Background()

	batch := []domain.Candle{{TimestampMs: 1000, Close: 100, Volume: 10}}
	require.NoError(t, src.InsertBulk(ctx, "NIFTY", batch))
	require.NoError(t, src.InsertBulk(ctx, "NIFTY", batch))

	// FINAL collapses the duplicate (segment, timestamp_ms) rows.
	got, err := src.GetByTimeRange(ctx, "NIFTY", 0, 5000)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCandleSource_EmptyRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewCandleSource(conn)
	ctx := context.Background()

	got, err := src.GetByTimeRange(ctx, "NIFTY", 0, 5000)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, src.InsertBulk(ctx, "NIFTY", nil))
}

func TestSnapshotSource_NullFieldsRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewSnapshotSource(conn)
	ctx := context.Background()

	snapshots := []domain.MarketSnapshot{
		{TimestampMs: 1000, PCR: ptr(1.25), MaxPain: ptr(22500.0), LTP: ptr(22480.5)},
		{TimestampMs: 2000}, // vendor dropped every field
	}

	require.NoError(t, src.InsertBulk(ctx, "NIFTY", snapshots))

	got, err := src.GetByTimeRange(ctx, "NIFTY", 0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].PCR)
	assert.Equal(t, 1.25, *got[0].PCR)
	require.NotNil(t, got[0].MaxPain)
	assert.Equal(t, 22500.0, *got[0].MaxPain)
	assert.Nil(t, got[0].BuyQty)

	assert.Nil(t, got[1].PCR)
	assert.Nil(t, got[1].LTP)
}

func TestSnapshotSource_TimeRangeBounds(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	src := NewSnapshotSource(conn)
	ctx := context.Background()

	snapshots := []domain.MarketSnapshot{
		{TimestampMs: 1000},
		{TimestampMs: 2000},
		{TimestampMs: 3000},
	}
	require.NoError(t, src.InsertBulk(ctx, "NIFTY", snapshots))

	// Bounds are inclusive on both ends.
	got, err := src.GetByTimeRange(ctx, "NIFTY", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
	assert.Equal(t, int64(3000), got[1].TimestampMs)
}
