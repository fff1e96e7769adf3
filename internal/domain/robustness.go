package domain

// Robustness check names.
const (
	CheckWalkForward     = "walk_forward"
	CheckMonteCarlo      = "monte_carlo"
	CheckSlippageStress  = "slippage_stress"
	CheckBrokerageStress = "brokerage_stress"
	CheckRegimeStability = "regime_stability"
)

// RobustnessConfig selects which checks run and their policy parameters.
// Immutable once a suite starts. Weights are a versioned policy choice;
// they must sum to 1 across all five checks before any redistribution
// for disabled checks.
type RobustnessConfig struct {
	PolicyVersion string

	EnabledChecks map[string]bool // nil enables the full default set

	Seed   int64 // Monte Carlo RNG seed; same seed => identical grade
	Trials int   // bootstrap trial count

	WalkForwardWindows int     // contiguous out-of-sample windows
	TailPercentile     float64 // drawdown percentile for tail penalty (0..1)
	SlippageStressMult float64 // multiplier on the liquidity slippage penalty
	BrokerageFeePts    float64 // inflated flat fee per trade, in points
	RegimeVolWindow    int     // bars for realized-volatility regime proxy

	Weights map[string]float64 // check name -> weight
}

// CheckScore is one check's contribution to the composite.
type CheckScore struct {
	Name   string
	Score  float64 // 0..100
	Weight float64 // effective weight after redistribution
	Detail string
}

// RobustnessResult is the fused output of a suite. Immutable once computed.
type RobustnessResult struct {
	PolicyVersion string
	Seed          int64
	Baseline      StrategyKPIs
	BaselineTrade int // trade count behind the baseline KPIs
	Scores        []CheckScore
	Total         float64 // weighted sum, 0..100
	Grade         string  // A | B | C | D | F
}

// DefaultRobustnessConfig is policy v1. Documented choices: equal-ish
// weights biased toward walk-forward and Monte Carlo, 5th-percentile
// tail drawdown, 1000 bootstrap trials.
var DefaultRobustnessConfig = RobustnessConfig{
	PolicyVersion:      "v1",
	Seed:               1,
	Trials:             1000,
	WalkForwardWindows: 4,
	TailPercentile:     0.05,
	SlippageStressMult: 2.5,
	BrokerageFeePts:    2.0,
	RegimeVolWindow:    20,
	Weights: map[string]float64{
		CheckWalkForward:     0.25,
		CheckMonteCarlo:      0.25,
		CheckSlippageStress:  0.20,
		CheckBrokerageStress: 0.10,
		CheckRegimeStability: 0.20,
	},
}

// GradeFor buckets a composite total into the discrete grade tiers.
func GradeFor(total float64) string {
	switch {
	case total >= 80:
		return "A"
	case total >= 65:
		return "B"
	case total >= 50:
		return "C"
	case total >= 35:
		return "D"
	default:
		return "F"
	}
}
