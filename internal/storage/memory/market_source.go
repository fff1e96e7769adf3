package memory

import (
	"context"
	"sort"
	"sync"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// CandleSource is an in-memory implementation of storage.CandleSource.
// Candles are kept per segment, sorted by timestamp ASC on load.
type CandleSource struct {
	mu   sync.RWMutex
	data map[string][]domain.Candle // keyed by segment
}

// NewCandleSource creates a new in-memory candle source.
func NewCandleSource() *CandleSource {
	return &CandleSource{
		data: make(map[string][]domain.Candle),
	}
}

// Load replaces the candles held for a segment.
func (s *CandleSource) Load(segment string, candles []domain.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]domain.Candle, len(candles))
	copy(cp, candles)
	sort.Slice(cp, func(i, j int) bool {
		return cp[i].TimestampMs < cp[j].TimestampMs
	})
	s.data[segment] = cp
}

// GetByTimeRange retrieves candles within [start, end] (inclusive).
func (s *CandleSource) GetByTimeRange(_ context.Context, segment string, start, end int64) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.data[segment]
	lo := sort.Search(len(all), func(i int) bool { return all[i].TimestampMs >= start })
	hi := sort.Search(len(all), func(i int) bool { return all[i].TimestampMs > end })

	result := make([]domain.Candle, hi-lo)
	copy(result, all[lo:hi])
	return result, nil
}

// SnapshotSource is an in-memory implementation of storage.SnapshotSource.
type SnapshotSource struct {
	mu   sync.RWMutex
	data map[string][]domain.MarketSnapshot // keyed by segment
}

// NewSnapshotSource creates a new in-memory snapshot source.
func NewSnapshotSource() *SnapshotSource {
	return &SnapshotSource{
		data: make(map[string][]domain.MarketSnapshot),
	}
}

// Load replaces the snapshots held for a segment.
func (s *SnapshotSource) Load(segment string, snapshots []domain.MarketSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]domain.MarketSnapshot, len(snapshots))
	copy(cp, snapshots)
	sort.Slice(cp, func(i, j int) bool {
		return cp[i].TimestampMs < cp[j].TimestampMs
	})
	s.data[segment] = cp
}

// GetByTimeRange retrieves snapshots within [start, end] (inclusive).
func (s *SnapshotSource) GetByTimeRange(_ context.Context, segment string, start, end int64) ([]domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.data[segment]
	lo := sort.Search(len(all), func(i int) bool { return all[i].TimestampMs >= start })
	hi := sort.Search(len(all), func(i int) bool { return all[i].TimestampMs > end })

	result := make([]domain.MarketSnapshot, hi-lo)
	copy(result, all[lo:hi])
	return result, nil
}

// Verify interface compliance at compile time.
var (
	_ storage.CandleSource   = (*CandleSource)(nil)
	_ storage.SnapshotSource = (*SnapshotSource)(nil)
)
