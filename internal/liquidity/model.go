// Package liquidity derives expected bid-ask spread and slippage from an
// option premium and its traded volume. Pure functions, no state.
package liquidity

// Clamp bands and flat penalties. Thin volume widens the assumed spread
// but the effect saturates; cheap premium carries wide relative spreads.
const (
	minPremium = 1.0

	volumePenaltyFloor = 0.0005
	volumePenaltyCeil  = 0.003
	noVolumePenalty    = 0.002 // conservative default when volume is unknown

	lowPremiumThreshold  = 20.0
	highPremiumThreshold = 150.0
	lowPremiumPenalty    = 0.003
	midPremiumPenalty    = 0.0015
	highPremiumPenalty   = 0.0008

	spreadFloor = 0.001
	spreadCeil  = 0.007

	slippageFloor = 0.0005
	slippageCeil  = 0.0035
)

// Estimate holds the modeled spread and the slippage haircut applied to
// simulated fills, both as fractions of premium.
type Estimate struct {
	SpreadPct          float64
	SlippagePenaltyPct float64
}

// Estimate models the expected spread for a given premium and volume.
// volume == nil or volume <= 0 means traded volume is unknown and a fixed
// conservative penalty applies. Deterministic for identical inputs.
func EstimateFor(premium float64, volume *float64) Estimate {
	if premium < minPremium {
		premium = minPremium
	}

	volPenalty := noVolumePenalty
	if volume != nil && *volume > 0 {
		// Inverse relation to volume, saturating at the band edges.
		volPenalty = clamp(1.0 / *volume, volumePenaltyFloor, volumePenaltyCeil)
	}

	bandPenalty := midPremiumPenalty
	switch {
	case premium < lowPremiumThreshold:
		bandPenalty = lowPremiumPenalty
	case premium >= highPremiumThreshold:
		bandPenalty = highPremiumPenalty
	}

	spread := clamp(volPenalty+bandPenalty, spreadFloor, spreadCeil)
	slippage := clamp(spread/2, slippageFloor, slippageCeil)

	return Estimate{
		SpreadPct:          spread,
		SlippagePenaltyPct: slippage,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
