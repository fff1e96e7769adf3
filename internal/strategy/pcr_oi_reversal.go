package strategy

import (
	"options-edge-lab/internal/domain"
)

// PCROIReversal fades sentiment extremes: an elevated put-call ratio with
// a bullish bar argues the downside is crowded, and vice versa. Order-flow
// imbalance from the snapshot, when present, gates the signal.
//
// Params: pcrHigh (1.3), pcrLow (0.7), flowImbalance (1.2).
type PCROIReversal struct {
	pcrHigh   float64
	pcrLow    float64
	imbalance float64
}

func (r *PCROIReversal) ID() string { return StrategyPCROIReversal }

func (r *PCROIReversal) Warmup() int { return 2 }

func (r *PCROIReversal) Prepare(env *Env) error {
	r.pcrHigh = env.Cfg.Param("pcrHigh", 1.3)
	r.pcrLow = env.Cfg.Param("pcrLow", 0.7)
	r.imbalance = env.Cfg.Param("flowImbalance", 1.2)
	return nil
}

func (r *PCROIReversal) Evaluate(i int, env *Env) *Verdict {
	if i < 1 {
		return nil
	}
	snap := env.SnapshotAt(env.Candles[i].TimestampMs)
	if snap == nil || snap.PCR == nil {
		return nil
	}

	c := env.Candles[i]
	bullishBar := c.Close > c.Open
	bearishBar := c.Close < c.Open

	if *snap.PCR >= r.pcrHigh && bullishBar && r.flowAgrees(snap, domain.DirectionLong) {
		return &Verdict{
			Direction:  domain.DirectionLong,
			Confidence: 55 + (*snap.PCR-r.pcrHigh)*20,
			Reason:     "crowded puts with bullish bar",
		}
	}
	if *snap.PCR <= r.pcrLow && *snap.PCR > 0 && bearishBar && r.flowAgrees(snap, domain.DirectionShort) {
		return &Verdict{
			Direction:  domain.DirectionShort,
			Confidence: 55 + (r.pcrLow-*snap.PCR)*20,
			Reason:     "crowded calls with bearish bar",
		}
	}
	return nil
}

// flowAgrees checks buy/sell quantity imbalance when both sides are
// known; unknown flow neither confirms nor blocks.
func (r *PCROIReversal) flowAgrees(snap *domain.MarketSnapshot, dir domain.Direction) bool {
	if snap.BuyQty == nil || snap.SellQty == nil || *snap.SellQty <= 0 || *snap.BuyQty <= 0 {
		return true
	}
	if dir == domain.DirectionLong {
		return *snap.BuyQty / *snap.SellQty >= r.imbalance
	}
	return *snap.SellQty / *snap.BuyQty >= r.imbalance
}
