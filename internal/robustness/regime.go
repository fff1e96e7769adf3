package robustness

import (
	"fmt"
	"sort"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/indicator"
)

// regime labels.
const (
	regimeLowVol  = 0
	regimeMidVol  = 1
	regimeHighVol = 2
	regimeCount   = 3
)

// regimeStability segments the range by realized-volatility tercile and
// penalizes profit concentration in a single regime. A strategy whose
// entire edge lives in one volatility state is graded fragile.
func (s *Suite) regimeStability(baseline *engine.Result) (float64, string, error) {
	if len(s.candles) == 0 {
		return 0, "no candle data for regime classification", nil
	}

	regimes := classifyRegimes(s.candles, s.cfg.RegimeVolWindow)

	var perRegime [regimeCount]float64
	totalPositive := 0.0
	for _, t := range baseline.Trades {
		if t.PnLR <= 0 {
			continue
		}
		idx := barIndexAt(s.candles, t.EntryTimeMs)
		if idx < 0 {
			continue
		}
		perRegime[regimes[idx]] += t.PnLR
		totalPositive += t.PnLR
	}

	if totalPositive == 0 {
		return 0, "no profitable trades to attribute across regimes", nil
	}

	concentration := 0.0
	for _, p := range perRegime {
		if share := p / totalPositive; share > concentration {
			concentration = share
		}
	}

	// Perfectly balanced profit (share 1/3 each) scores 100; all profit
	// in a single regime scores 0.
	score := (1 - concentration) / (1 - 1.0/regimeCount) * 100
	detail := fmt.Sprintf("profit shares low/mid/high = %.2f/%.2f/%.2f",
		perRegime[0]/totalPositive, perRegime[1]/totalPositive, perRegime[2]/totalPositive)
	return score, detail, nil
}

// classifyRegimes assigns each bar a volatility tercile based on the
// rolling realized vol of closes over the whole range.
func classifyRegimes(candles []domain.Candle, window int) []int {
	_, _, closes, _ := indicator.Split(candles)
	vols := indicator.RealizedVol(closes, window)

	sorted := make([]float64, len(vols))
	copy(sorted, vols)
	sort.Float64s(sorted)

	t1 := sorted[len(sorted)/3]
	t2 := sorted[2*len(sorted)/3]

	out := make([]int, len(vols))
	for i, v := range vols {
		switch {
		case v <= t1:
			out[i] = regimeLowVol
		case v <= t2:
			out[i] = regimeMidVol
		default:
			out[i] = regimeHighVol
		}
	}
	return out
}

// barIndexAt finds the index of the bar with the given timestamp, or the
// last bar before it. Returns -1 when ts precedes the series.
func barIndexAt(candles []domain.Candle, ts int64) int {
	lo := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs > ts
	})
	return lo - 1
}
