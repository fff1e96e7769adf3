package domain

// Candle represents one price bar of the execution timeframe.
// Series are ordered by strictly increasing TimestampMs; gaps are legal.
type Candle struct {
	TimestampMs int64   // bar open time (ms since epoch, UTC)
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// MarketSnapshot holds derivative-market analytics for one point in time.
// Any field may be absent; missing data is a valid state, not an error.
type MarketSnapshot struct {
	TimestampMs int64
	PCR         *float64 // put-call ratio
	BuyQty      *float64
	SellQty     *float64
	TradeVolume *float64
	MaxPain     *float64 // max-pain strike
	LTP         *float64 // last traded price of the underlying
}
