package indicator

import "options-edge-lab/internal/domain"

// Supertrend computes the supertrend line and per-bar trend direction
// (+1 up, -1 down, 0 during ATR warm-up) from ATR bands around the bar
// midpoint. Standard band carryover: a final band only ratchets in the
// trend direction until price crosses it.
func Supertrend(candles []domain.Candle, period int, mult float64) (line []float64, trend []int) {
	n := len(candles)
	line = make([]float64, n)
	trend = make([]int, n)
	if n == 0 || period <= 0 || n <= period {
		return
	}

	atr := ATR(candles, period)

	upper := make([]float64, n)
	lower := make([]float64, n)

	for i := period; i < n; i++ {
		mid := (candles[i].High + candles[i].Low) / 2
		basicUpper := mid + mult*atr[i]
		basicLower := mid - mult*atr[i]

		if i == period {
			upper[i] = basicUpper
			lower[i] = basicLower
			trend[i] = 1
			line[i] = lower[i]
			continue
		}

		upper[i] = basicUpper
		if basicUpper > upper[i-1] && candles[i-1].Close < upper[i-1] {
			upper[i] = upper[i-1]
		}
		lower[i] = basicLower
		if basicLower < lower[i-1] && candles[i-1].Close > lower[i-1] {
			lower[i] = lower[i-1]
		}

		trend[i] = trend[i-1]
		if trend[i-1] == 1 && candles[i].Close < lower[i-1] {
			trend[i] = -1
		} else if trend[i-1] == -1 && candles[i].Close > upper[i-1] {
			trend[i] = 1
		}

		if trend[i] == 1 {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}
	return
}
