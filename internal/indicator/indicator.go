package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"options-edge-lab/internal/domain"
)

// ATR returns the Average True Range series for the given period.
// Indices inside the warm-up window are 0; callers must treat a zero ATR
// as "not ready" rather than a tradable value.
func ATR(candles []domain.Candle, period int) []float64 {
	if period <= 0 || len(candles) <= period {
		return make([]float64, len(candles))
	}
	highs, lows, closes, _ := Split(candles)
	return talib.Atr(highs, lows, closes, period)
}

// EMA returns the exponential moving average of closes.
func EMA(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period {
		return make([]float64, len(closes))
	}
	return talib.Ema(closes, period)
}

// MACD returns the MACD line, signal line and histogram.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	if len(closes) < slow+signal {
		n := len(closes)
		return make([]float64, n), make([]float64, n), make([]float64, n)
	}
	return talib.Macd(closes, fast, slow, signal)
}

// ADX returns the Average Directional Index series.
func ADX(candles []domain.Candle, period int) []float64 {
	if period <= 0 || len(candles) <= 2*period {
		return make([]float64, len(candles))
	}
	highs, lows, closes, _ := Split(candles)
	return talib.Adx(highs, lows, closes, period)
}

// RSI returns the Relative Strength Index series.
func RSI(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) <= period {
		return make([]float64, len(closes))
	}
	return talib.Rsi(closes, period)
}

// VWAP returns a session-anchored volume-weighted average price: the
// cumulative sums reset at each UTC day boundary, matching the intraday
// scope of the engine. Bars with zero cumulative volume fall back to the
// typical price.
func VWAP(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	var sumPV, sumV float64
	var day int64 = math.MinInt64

	for i, c := range candles {
		d := c.TimestampMs / 86_400_000
		if d != day {
			day = d
			sumPV, sumV = 0, 0
		}
		tp := (c.High + c.Low + c.Close) / 3
		sumPV += tp * c.Volume
		sumV += c.Volume
		if sumV == 0 {
			out[i] = tp
		} else {
			out[i] = sumPV / sumV
		}
	}
	return out
}

// RealizedVol returns a rolling sample standard deviation of one-bar
// log returns, the volatility proxy used for regime classification.
// Warm-up indices are 0.
func RealizedVol(closes []float64, window int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if window <= 1 || n < 2 {
		return out
	}

	returns := make([]float64, n)
	for i := 1; i < n; i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			returns[i] = math.Log(closes[i] / closes[i-1])
		}
	}

	for i := window; i < n; i++ {
		win := returns[i-window+1 : i+1]
		mean := 0.0
		for _, r := range win {
			mean += r
		}
		mean /= float64(len(win))
		sumSq := 0.0
		for _, r := range win {
			d := r - mean
			sumSq += d * d
		}
		out[i] = math.Sqrt(sumSq / float64(len(win)-1))
	}
	return out
}
