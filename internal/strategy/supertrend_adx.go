package strategy

import (
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/indicator"
)

// SupertrendADX enters on a supertrend flip when ADX confirms a trending
// market.
//
// Params: stPeriod (10), stMult (3), adxPeriod (14), adxMin (20).
type SupertrendADX struct {
	stPeriod  int
	adxPeriod int
	adxMin    float64

	trend []int
	adx   []float64
}

func (r *SupertrendADX) ID() string { return StrategySupertrendADX }

func (r *SupertrendADX) Warmup() int {
	return 2*r.adxPeriod + r.stPeriod + 1
}

func (r *SupertrendADX) Prepare(env *Env) error {
	r.stPeriod = int(env.Cfg.Param("stPeriod", 10))
	r.adxPeriod = int(env.Cfg.Param("adxPeriod", 14))
	r.adxMin = env.Cfg.Param("adxMin", 20)
	if r.stPeriod <= 0 {
		return fmt.Errorf("%w: stPeriod must be positive, got %d", ErrConfig, r.stPeriod)
	}

	_, r.trend = indicator.Supertrend(env.Candles, r.stPeriod, env.Cfg.Param("stMult", 3))
	r.adx = indicator.ADX(env.Candles, r.adxPeriod)
	return nil
}

func (r *SupertrendADX) Evaluate(i int, env *Env) *Verdict {
	if i < 1 || r.trend[i] == 0 || r.trend[i-1] == 0 {
		return nil
	}
	if r.adx[i] < r.adxMin {
		return nil
	}

	// Only the flip bar fires, not every bar inside the trend.
	if r.trend[i-1] != -1 || r.trend[i] != 1 {
		if r.trend[i-1] != 1 || r.trend[i] != -1 {
			return nil
		}
		return &Verdict{
			Direction:  domain.DirectionShort,
			Confidence: confidenceFromADX(r.adx[i]),
			Reason:     "supertrend flipped down with trending ADX",
		}
	}

	return &Verdict{
		Direction:  domain.DirectionLong,
		Confidence: confidenceFromADX(r.adx[i]),
		Reason:     "supertrend flipped up with trending ADX",
	}
}

func confidenceFromADX(adx float64) float64 {
	c := 50 + adx
	if c > 95 {
		c = 95
	}
	return c
}
