package domain

// StrategyEngineConfig holds all engine parameters for one evaluation run.
// Immutable once a run starts.
type StrategyEngineConfig struct {
	IntervalMin          int     // execution timeframe in minutes
	HigherIntervalsMin   []int   // higher timeframes for multi-timeframe confirmation
	ATRPeriod            int     // lookback for Average True Range
	StopATRMult          float64 // stop distance as ATR multiple
	TargetR              float64 // take-profit as multiple of entry-to-stop risk
	MaxBarsInTrade       int     // timeout exit after this many bars held
	MinBarsBetweenTrades int     // cooldown after a trade closes
	RiskPerTradePct      float64 // capital fraction risked per trade
	DailyRiskCapPct      float64 // cap on risk opened within one session day

	// Params carries strategy-specific numeric thresholds keyed by name
	// (e.g. "emaFast", "adxMin", "pcrHigh"). Free-form by design of the
	// rule registry: one generic loop, tagged configuration records.
	Params map[string]float64
}

// Param returns the named threshold or the fallback when unset.
func (c StrategyEngineConfig) Param(name string, fallback float64) float64 {
	if v, ok := c.Params[name]; ok {
		return v
	}
	return fallback
}
