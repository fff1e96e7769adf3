package strategy

import (
	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/indicator"
)

// VWAPReversion fades stretched moves away from session VWAP when RSI
// agrees the move is exhausted. Positions invalidate once price tags
// VWAP again, the reversion thesis having played out.
//
// Params: vwapDevPct (0.5), rsiPeriod (14), rsiLow (30), rsiHigh (70).
type VWAPReversion struct {
	devPct    float64
	rsiPeriod int
	rsiLow    float64
	rsiHigh   float64

	vwap []float64
	rsi  []float64
}

func (r *VWAPReversion) ID() string { return StrategyVWAPReversion }

func (r *VWAPReversion) Warmup() int {
	return r.rsiPeriod + 1
}

func (r *VWAPReversion) Prepare(env *Env) error {
	r.devPct = env.Cfg.Param("vwapDevPct", 0.5)
	r.rsiPeriod = int(env.Cfg.Param("rsiPeriod", 14))
	r.rsiLow = env.Cfg.Param("rsiLow", 30)
	r.rsiHigh = env.Cfg.Param("rsiHigh", 70)

	r.vwap = indicator.VWAP(env.Candles)
	r.rsi = indicator.RSI(env.Closes, r.rsiPeriod)
	return nil
}

func (r *VWAPReversion) Evaluate(i int, env *Env) *Verdict {
	if r.rsi[i] == 0 || r.vwap[i] == 0 {
		return nil
	}

	close := env.Closes[i]
	stretch := r.devPct / 100

	if close < r.vwap[i]*(1-stretch) && r.rsi[i] < r.rsiLow {
		return &Verdict{
			Direction:  domain.DirectionLong,
			Confidence: 55 + (r.rsiLow - r.rsi[i]),
			Reason:     "stretched below session VWAP with oversold RSI",
		}
	}
	if close > r.vwap[i]*(1+stretch) && r.rsi[i] > r.rsiHigh {
		return &Verdict{
			Direction:  domain.DirectionShort,
			Confidence: 55 + (r.rsi[i] - r.rsiHigh),
			Reason:     "stretched above session VWAP with overbought RSI",
		}
	}
	return nil
}

// ShouldInvalidate exits a reversion trade once price crosses back
// through VWAP; the edge, if any, is spent at the mean.
func (r *VWAPReversion) ShouldInvalidate(i int, env *Env, dir domain.Direction) bool {
	if i >= len(r.vwap) || r.vwap[i] == 0 {
		return false
	}
	if dir == domain.DirectionLong {
		return env.Closes[i] >= r.vwap[i]
	}
	return env.Closes[i] <= r.vwap[i]
}

var _ Invalidator = (*VWAPReversion)(nil)
