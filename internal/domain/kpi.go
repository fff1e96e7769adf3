package domain

// StrategyKPIs are aggregate statistics over a set of SimulatedTrades.
// Always recomputed from the full trade list, never mutated incrementally.
type StrategyKPIs struct {
	Trades    int
	Wins      int
	Losses    int
	Scratches int

	WinRate   float64 // wins / trades, 0 when no trades
	NetPoints float64
	NetR      float64
	AvgR      float64

	ExpectancyR float64
	// ProfitFactor is gross profit / gross loss in points. +Inf when there
	// are no losing trades and at least one winner; 0 when no trades.
	ProfitFactor float64
	MaxDrawdownR float64 // worst peak-to-trough on cumulative R
	SharpeLike   float64 // mean(R)/sample stdev(R); 0 when stdev 0 or trades < 2
}

// RiskState tracks concurrent exposure during a single simulation pass.
// Owned exclusively by that pass; reset at the start of each run.
type RiskState struct {
	OpenTrades int
}
