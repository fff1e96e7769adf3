// Package marketdata generates deterministic synthetic market series for
// demos and local runs. Same seed, same series.
package marketdata

import (
	"math"
	"math/rand"

	"options-edge-lab/internal/domain"
)

// SyntheticConfig shapes a generated intraday series.
type SyntheticConfig struct {
	Seed        int64
	StartMs     int64
	Bars        int
	IntervalMin int     // bar width in minutes
	BasePrice   float64 // opening level of the series
	DriftPct    float64 // per-bar drift as a fraction of price
	VolPct      float64 // per-bar noise amplitude as a fraction of price
}

// DefaultSyntheticConfig is a plausible index-level intraday session:
// 5-minute bars starting at a round level with mild upward drift.
var DefaultSyntheticConfig = SyntheticConfig{
	Seed:        1,
	StartMs:     1_700_000_000_000,
	Bars:        750, // ten 75-bar sessions
	IntervalMin: 5,
	BasePrice:   22_000,
	DriftPct:    0.00005,
	VolPct:      0.0012,
}

// Candles generates a random-walk OHLCV series. Volatility cycles
// through calm, normal and stressed blocks so regime classification on
// the output is non-degenerate.
func Candles(cfg SyntheticConfig) []domain.Candle {
	rng := rand.New(rand.NewSource(cfg.Seed))
	intervalMs := int64(cfg.IntervalMin) * 60_000

	out := make([]domain.Candle, 0, cfg.Bars)
	price := cfg.BasePrice
	for i := 0; i < cfg.Bars; i++ {
		amp := price * cfg.VolPct * volCycle(i)
		open := price
		close := open + open*cfg.DriftPct + (rng.Float64()*2-1)*amp
		high := math.Max(open, close) + rng.Float64()*amp*0.5
		low := math.Min(open, close) - rng.Float64()*amp*0.5
		volume := 50_000 + rng.Float64()*150_000

		out = append(out, domain.Candle{
			TimestampMs: cfg.StartMs + int64(i)*intervalMs,
			Open:        open,
			High:        high,
			Low:         low,
			Close:       close,
			Volume:      volume,
		})
		price = close
	}
	return out
}

// Snapshots generates option-market analytics aligned to the candle
// series. PCR mean-reverts around 1.0 and order-flow imbalance tracks
// the bar direction.
func Snapshots(cfg SyntheticConfig, candles []domain.Candle) []domain.MarketSnapshot {
	rng := rand.New(rand.NewSource(cfg.Seed + 1))

	out := make([]domain.MarketSnapshot, 0, len(candles))
	pcr := 1.0
	for _, c := range candles {
		pcr += (1.0-pcr)*0.1 + (rng.Float64()*2-1)*0.08
		if pcr < 0.3 {
			pcr = 0.3
		}

		flow := 100_000 + rng.Float64()*400_000
		buyShare := 0.5
		if c.Close > c.Open {
			buyShare += 0.05 + rng.Float64()*0.1
		} else {
			buyShare -= 0.05 + rng.Float64()*0.1
		}
		buy := flow * buyShare
		sell := flow - buy
		maxPain := math.Round(c.Close/50) * 50
		ltp := c.Close

		out = append(out, domain.MarketSnapshot{
			TimestampMs: c.TimestampMs,
			PCR:         ptr(pcr),
			BuyQty:      ptr(buy),
			SellQty:     ptr(sell),
			TradeVolume: ptr(flow),
			MaxPain:     ptr(maxPain),
			LTP:         ptr(ltp),
		})
	}
	return out
}

// volCycle multiplies the base amplitude in 75-bar session blocks:
// calm, normal, stressed, repeating.
func volCycle(bar int) float64 {
	switch (bar / 75) % 3 {
	case 0:
		return 0.5
	case 1:
		return 1.0
	default:
		return 2.5
	}
}

func ptr(v float64) *float64 { return &v }
