package robustness

import (
	"context"
	"fmt"
	"math"

	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/kpi"
)

// walkForward partitions the date range into contiguous out-of-sample
// windows, evaluates each independently and penalizes negative-expectancy
// windows and high variance of per-window expectancy. Rules are fixed,
// nothing is fit: the check measures consistency, not optimization.
func (s *Suite) walkForward(ctx context.Context) (float64, string, error) {
	n := len(s.candles)
	windows := s.cfg.WalkForwardWindows
	if n == 0 || windows <= 0 {
		return 0, "no candle data for walk-forward windows", nil
	}
	if windows > n {
		windows = n
	}

	expectancies := make([]float64, 0, windows)
	negative := 0

	size := n / windows
	for w := 0; w < windows; w++ {
		lo := w * size
		hi := lo + size - 1
		if w == windows-1 {
			hi = n - 1
		}

		res, err := s.run(ctx, engine.RunOptions{
			FromMs: s.candles[lo].TimestampMs,
			ToMs:   s.candles[hi].TimestampMs,
		})
		if err != nil {
			return 0, "", err
		}

		exp := res.KPIs.ExpectancyR
		expectancies = append(expectancies, exp)
		if exp < 0 {
			negative++
		}
	}

	mean := kpi.Mean(expectancies)
	sd := kpi.SampleStddev(expectancies, mean)

	// Coefficient of variation; a zero mean makes any dispersion maximally
	// suspicious, so fall back to the raw stdev scaled up.
	cv := sd * 4
	if math.Abs(mean) > 1e-9 {
		cv = sd / math.Abs(mean)
	}

	score := 100 - 15*float64(negative) - math.Min(40, cv*20)
	detail := fmt.Sprintf("windows=%d negative=%d expectancy mean=%.3f sd=%.3f", windows, negative, mean, sd)
	return score, detail, nil
}

// stress re-runs the evaluation under inflated execution costs and
// penalizes expectancy degradation relative to the baseline.
func (s *Suite) stress(ctx context.Context, baseline *engine.Result, opts engine.RunOptions) (float64, string, error) {
	stressed, err := s.run(ctx, opts)
	if err != nil {
		return 0, "", err
	}

	base := baseline.KPIs.ExpectancyR
	stress := stressed.KPIs.ExpectancyR

	denom := math.Abs(base)
	if denom < 0.1 {
		denom = 0.1 // a near-zero edge makes relative degradation unstable
	}
	degradation := (base - stress) / denom
	if degradation < 0 {
		degradation = 0 // stress made it better; no penalty
	}

	score := 100 - math.Min(100, degradation*100)
	detail := fmt.Sprintf("expectancy %.3fR -> %.3fR (degradation %.1f%%)", base, stress, degradation*100)
	return score, detail, nil
}
