package indicator

import (
	"math"
	"testing"

	"options-edge-lab/internal/domain"
)

func minuteBars(n int, startMs int64, price float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			TimestampMs: startMs + int64(i)*60_000,
			Open:        price,
			High:        price + 1,
			Low:         price - 1,
			Close:       price,
			Volume:      100,
		}
	}
	return out
}

func TestATR_ShortSeriesDoesNotPanic(t *testing.T) {
	series := minuteBars(5, 0, 100)

	atr := ATR(series, 14)

	if len(atr) != len(series) {
		t.Fatalf("ATR length %d != series length %d", len(atr), len(series))
	}
	for i, v := range atr {
		if v != 0 {
			t.Errorf("warm-up index %d should be 0, got %f", i, v)
		}
	}
}

func TestATR_ConstantRange(t *testing.T) {
	series := minuteBars(50, 0, 100)

	atr := ATR(series, 14)

	// Every bar spans exactly 2 points; ATR converges on that range.
	if got := atr[len(atr)-1]; math.Abs(got-2.0) > 0.2 {
		t.Errorf("ATR on constant-range bars = %f, want ~2.0", got)
	}
}

func TestResample_Aggregates(t *testing.T) {
	series := []domain.Candle{
		{TimestampMs: 0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 5},
		{TimestampMs: 60_000, Open: 11, High: 15, Low: 10, Close: 14, Volume: 5},
		{TimestampMs: 120_000, Open: 14, High: 14, Low: 8, Close: 9, Volume: 5},
		{TimestampMs: 300_000, Open: 9, High: 10, Low: 9, Close: 10, Volume: 5},
	}

	out := Resample(series, 5)

	if len(out) != 2 {
		t.Fatalf("expected 2 five-minute buckets, got %d", len(out))
	}
	first := out[0]
	if first.Open != 10 || first.High != 15 || first.Low != 8 || first.Close != 9 || first.Volume != 15 {
		t.Errorf("unexpected first bucket: %+v", first)
	}
}

func TestLastCompletedIndex_NoLookahead(t *testing.T) {
	series := minuteBars(20, 0, 100)
	resampled := Resample(series, 5)

	// At t=4min the first 5-minute bucket is still forming.
	if idx := LastCompletedIndex(resampled, 5, 4*60_000); idx != -1 {
		t.Errorf("forming bucket visible at index %d", idx)
	}
	// At t=5min the first bucket has closed.
	if idx := LastCompletedIndex(resampled, 5, 5*60_000); idx != 0 {
		t.Errorf("expected index 0 after first bucket closes, got %d", idx)
	}
}

func TestVWAP_ResetsAtDayBoundary(t *testing.T) {
	dayMs := int64(86_400_000)
	series := []domain.Candle{
		{TimestampMs: dayMs - 60_000, High: 101, Low: 99, Close: 100, Volume: 10},
		{TimestampMs: dayMs, High: 201, Low: 199, Close: 200, Volume: 10},
	}

	vwap := VWAP(series)

	// Second bar starts a new session: its VWAP is its own typical price.
	if got := vwap[1]; math.Abs(got-200.0) > 1e-9 {
		t.Errorf("session VWAP did not reset at day boundary: %f", got)
	}
}

func TestRealizedVol_FlatSeriesIsZero(t *testing.T) {
	series := minuteBars(40, 0, 100)
	_, _, closes, _ := Split(series)

	vol := RealizedVol(closes, 10)

	if got := vol[len(vol)-1]; got != 0 {
		t.Errorf("flat series realized vol = %f, want 0", got)
	}
}

func TestSupertrend_TrendFlips(t *testing.T) {
	// 60 rising bars then 60 falling bars.
	series := make([]domain.Candle, 0, 120)
	price := 100.0
	for i := 0; i < 120; i++ {
		if i < 60 {
			price += 1
		} else {
			price -= 1.5
		}
		series = append(series, domain.Candle{
			TimestampMs: int64(i) * 60_000,
			Open:        price - 0.5,
			High:        price + 1,
			Low:         price - 1,
			Close:       price,
			Volume:      100,
		})
	}

	_, trend := Supertrend(series, 10, 3)

	if trend[55] != 1 {
		t.Errorf("expected up-trend during rally, got %d", trend[55])
	}
	if trend[119] != -1 {
		t.Errorf("expected down-trend during decline, got %d", trend[119])
	}
}
