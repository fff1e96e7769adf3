package strategy

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownStrategy is returned for identifiers with no registered builder.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Builder constructs a rule for an identifier. Parameters come from the
// engine config's Params map.
type Builder func() Rule

// Built-in strategy identifiers.
const (
	StrategyEMAMACDTrend   = "EMA_MACD_TREND"
	StrategySupertrendADX  = "SUPERTREND_ADX"
	StrategyVWAPReversion  = "VWAP_REVERSION"
	StrategyGammaBreakout  = "GAMMA_BREAKOUT"
	StrategyPCROIReversal  = "PCR_OI_REVERSAL"
)

var builders = map[string]Builder{
	StrategyEMAMACDTrend:  func() Rule { return &EMAMACDTrend{} },
	StrategySupertrendADX: func() Rule { return &SupertrendADX{} },
	StrategyVWAPReversion: func() Rule { return &VWAPReversion{} },
	StrategyGammaBreakout: func() Rule { return &GammaBreakout{} },
	StrategyPCROIReversal: func() Rule { return &PCROIReversal{} },
}

// Register adds or replaces a builder. Used by tests and by callers that
// carry private strategies.
func Register(id string, b Builder) {
	builders[id] = b
}

// FromID resolves a strategy identifier to a fresh rule instance.
func FromID(id string) (Rule, error) {
	b, ok := builders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
	}
	return b(), nil
}

// IDs returns the registered identifiers in sorted order.
func IDs() []string {
	out := make([]string, 0, len(builders))
	for id := range builders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
