package domain

// Direction of a position.
type Direction string

// Direction constants.
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// SignalEvent is a detected entry opportunity. Produced per bar by a rule,
// consumed immediately by the simulator; never persisted.
type SignalEvent struct {
	TimestampMs int64
	Direction   Direction
	Confidence  float64 // 0..100
	Reason      string
	Entry       float64
	StopLoss    float64
	TakeProfit  float64
}

// Exit reason codes.
const (
	ExitReasonStopLoss    = "STOP_LOSS"
	ExitReasonTakeProfit  = "TAKE_PROFIT"
	ExitReasonMaxBars     = "MAX_BARS"
	ExitReasonInvalidated = "INVALIDATED"
	ExitReasonEndOfData   = "END_OF_DATA"
)

// Outcome classes.
const (
	OutcomeWin     = "WIN"
	OutcomeLoss    = "LOSS"
	OutcomeScratch = "SCRATCH"
)

// OutcomeEpsilonR is the half-width of the SCRATCH band: trades with
// |pnlR| <= epsilon are neither wins nor losses.
const OutcomeEpsilonR = 0.05

// SimulatedTrade is the closed-trade record, the unit of all KPI
// aggregation. Immutable once created.
type SimulatedTrade struct {
	TradeID   string // deterministic hash
	Direction Direction

	EntryTimeMs int64
	EntryPrice  float64
	ExitTimeMs  int64
	ExitPrice   float64
	BarsHeld    int

	StopLoss   float64
	TakeProfit float64

	RiskPoints float64 // |entry - stop| at open
	PnLPoints  float64 // signed, after slippage/fees
	PnLR       float64 // PnLPoints / RiskPoints

	Outcome    string // WIN | LOSS | SCRATCH
	ExitReason string
}

// ClassifyOutcome buckets a realized R-multiple into WIN/LOSS/SCRATCH.
func ClassifyOutcome(pnlR float64) string {
	switch {
	case pnlR > OutcomeEpsilonR:
		return OutcomeWin
	case pnlR < -OutcomeEpsilonR:
		return OutcomeLoss
	default:
		return OutcomeScratch
	}
}
