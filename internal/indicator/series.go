// Package indicator builds rolling indicator series from candle data.
// Every series is aligned to the input: the value at index i is computed
// from bars 0..i only, so consuming it bar-by-bar cannot look ahead.
package indicator

import "options-edge-lab/internal/domain"

// Split extracts the OHLCV component slices from a candle series.
func Split(candles []domain.Candle) (highs, lows, closes, volumes []float64) {
	n := len(candles)
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	volumes = make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		volumes[i] = c.Volume
	}
	return
}

// Resample aggregates an execution-timeframe series into intervalMin
// buckets. Bucket boundaries are aligned to the epoch so identical input
// always produces identical buckets. Gaps in the source series simply
// produce fewer buckets.
func Resample(candles []domain.Candle, intervalMin int) []domain.Candle {
	if intervalMin <= 0 || len(candles) == 0 {
		return nil
	}
	bucketMs := int64(intervalMin) * 60_000

	var out []domain.Candle
	for _, c := range candles {
		start := c.TimestampMs - c.TimestampMs%bucketMs
		if len(out) == 0 || out[len(out)-1].TimestampMs != start {
			out = append(out, domain.Candle{
				TimestampMs: start,
				Open:        c.Open,
				High:        c.High,
				Low:         c.Low,
				Close:       c.Close,
				Volume:      c.Volume,
			})
			continue
		}
		last := &out[len(out)-1]
		if c.High > last.High {
			last.High = c.High
		}
		if c.Low < last.Low {
			last.Low = c.Low
		}
		last.Close = c.Close
		last.Volume += c.Volume
	}
	return out
}

// LastCompletedIndex returns the index of the last higher-timeframe bar
// whose bucket closed at or before ts, or -1 when none has. The bar that
// is still forming at ts is never visible to the caller.
func LastCompletedIndex(resampled []domain.Candle, intervalMin int, ts int64) int {
	bucketMs := int64(intervalMin) * 60_000
	idx := -1
	for i, c := range resampled {
		if c.TimestampMs+bucketMs <= ts {
			idx = i
			continue
		}
		break
	}
	return idx
}
