package strategy

import (
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/indicator"
)

// EMAMACDTrend enters with the trend when the fast EMA leads the slow EMA
// and the MACD histogram agrees, optionally confirmed on the configured
// higher timeframes.
//
// Params: emaFast (9), emaSlow (21), macdFast (12), macdSlow (26),
// macdSignal (9).
type EMAMACDTrend struct {
	fastPeriod int
	slowPeriod int

	emaFast []float64
	emaSlow []float64
	macd    []float64
	signal  []float64
	hist    []float64

	// higher-timeframe fast/slow EMAs keyed by interval
	higherFast map[int][]float64
	higherSlow map[int][]float64
}

func (r *EMAMACDTrend) ID() string { return StrategyEMAMACDTrend }

func (r *EMAMACDTrend) Warmup() int {
	return r.slowPeriod + 10
}

func (r *EMAMACDTrend) Prepare(env *Env) error {
	r.fastPeriod = int(env.Cfg.Param("emaFast", 9))
	r.slowPeriod = int(env.Cfg.Param("emaSlow", 21))
	if r.fastPeriod >= r.slowPeriod {
		return fmt.Errorf("%w: emaFast %d must be below emaSlow %d", ErrConfig, r.fastPeriod, r.slowPeriod)
	}

	r.emaFast = indicator.EMA(env.Closes, r.fastPeriod)
	r.emaSlow = indicator.EMA(env.Closes, r.slowPeriod)
	r.macd, r.signal, r.hist = indicator.MACD(env.Closes,
		int(env.Cfg.Param("macdFast", 12)),
		int(env.Cfg.Param("macdSlow", 26)),
		int(env.Cfg.Param("macdSignal", 9)))

	r.higherFast = make(map[int][]float64)
	r.higherSlow = make(map[int][]float64)
	for interval, series := range env.Higher {
		_, _, closes, _ := indicator.Split(series)
		r.higherFast[interval] = indicator.EMA(closes, r.fastPeriod)
		r.higherSlow[interval] = indicator.EMA(closes, r.slowPeriod)
	}
	return nil
}

func (r *EMAMACDTrend) Evaluate(i int, env *Env) *Verdict {
	if i < 1 || r.emaFast[i] == 0 || r.emaSlow[i] == 0 {
		return nil
	}

	longBias := r.emaFast[i] > r.emaSlow[i] && r.macd[i] > r.signal[i] && r.hist[i] > r.hist[i-1]
	shortBias := r.emaFast[i] < r.emaSlow[i] && r.macd[i] < r.signal[i] && r.hist[i] < r.hist[i-1]
	if !longBias && !shortBias {
		return nil
	}

	dir := domain.DirectionLong
	if shortBias {
		dir = domain.DirectionShort
	}

	confidence := 60.0
	for interval := range env.Higher {
		ok, confirmed := r.higherConfirms(env, interval, env.Candles[i].TimestampMs, dir)
		if !ok {
			continue // no completed higher bar yet; neither confirms nor blocks
		}
		if !confirmed {
			return nil
		}
		confidence += 10
	}
	if confidence > 95 {
		confidence = 95
	}

	return &Verdict{
		Direction:  dir,
		Confidence: confidence,
		Reason:     fmt.Sprintf("ema%d/%d trend with MACD momentum", r.fastPeriod, r.slowPeriod),
	}
}

// higherConfirms reports (hasCompletedBar, confirms) for one higher timeframe.
func (r *EMAMACDTrend) higherConfirms(env *Env, interval int, ts int64, dir domain.Direction) (bool, bool) {
	_, idx := env.HigherIndex(interval, ts)
	if idx < 0 {
		return false, false
	}
	fast := r.higherFast[interval]
	slow := r.higherSlow[interval]
	if idx >= len(fast) || fast[idx] == 0 || slow[idx] == 0 {
		return false, false
	}
	if dir == domain.DirectionLong {
		return true, fast[idx] > slow[idx]
	}
	return true, fast[idx] < slow[idx]
}
