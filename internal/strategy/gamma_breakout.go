package strategy

import (
	"math"

	"options-edge-lab/internal/domain"
)

// GammaBreakout trades premium breakouts when the underlying has pulled
// away from the max-pain strike, where pinning pressure fades and dealer
// hedging can accelerate the move. Requires snapshot data; bars without
// a usable snapshot simply produce no signal.
//
// Params: maxPainDevPct (1.0), breakoutLookback (20), volMult (1.5).
type GammaBreakout struct {
	devPct   float64
	lookback int
	volMult  float64
}

func (r *GammaBreakout) ID() string { return StrategyGammaBreakout }

func (r *GammaBreakout) Warmup() int {
	return r.lookback + 1
}

func (r *GammaBreakout) Prepare(env *Env) error {
	r.devPct = env.Cfg.Param("maxPainDevPct", 1.0)
	r.lookback = int(env.Cfg.Param("breakoutLookback", 20))
	r.volMult = env.Cfg.Param("volMult", 1.5)
	return nil
}

func (r *GammaBreakout) Evaluate(i int, env *Env) *Verdict {
	if i < r.lookback {
		return nil
	}

	snap := env.SnapshotAt(env.Candles[i].TimestampMs)
	if snap == nil || snap.MaxPain == nil || snap.LTP == nil || *snap.MaxPain <= 0 {
		return nil
	}

	deviation := (*snap.LTP - *snap.MaxPain) / *snap.MaxPain * 100
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation < r.devPct {
		return nil // still pinned near max pain
	}

	// N-bar premium breakout with a volume spike. The prior-bar maximum
	// only; the current bar must close above it.
	high, vol := math.Inf(-1), 0.0
	for j := i - r.lookback; j < i; j++ {
		if env.Highs[j] > high {
			high = env.Highs[j]
		}
		vol += env.Volumes[j]
	}
	avgVol := vol / float64(r.lookback)
	if env.Closes[i] <= high || (avgVol > 0 && env.Volumes[i] < avgVol*r.volMult) {
		return nil
	}

	confidence := 60 + deviation*5
	if confidence > 95 {
		confidence = 95
	}

	return &Verdict{
		Direction:  domain.DirectionLong,
		Confidence: confidence,
		Reason:     "premium breakout away from max-pain pin",
	}
}
