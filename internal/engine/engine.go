// Package engine replays candle series through a strategy rule to
// produce simulated trades and KPIs. One forward pass, no look-ahead:
// every decision at bar i uses indicator state from bars 0..i only.
package engine

import (
	"context"
	"errors"
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/exposure"
	"options-edge-lab/internal/idhash"
	"options-edge-lab/internal/kpi"
	"options-edge-lab/internal/liquidity"
	"options-edge-lab/internal/observability"
	"options-edge-lab/internal/strategy"
)

// ErrInputData marks malformed candle or snapshot data. Fails the
// current run only.
var ErrInputData = errors.New("malformed input data")

// RunOptions vary a single pass without touching the strategy config.
// The robustness engine drives its stress re-runs through these.
type RunOptions struct {
	FromMs int64 // inclusive window start; 0 means unbounded
	ToMs   int64 // inclusive window end; 0 means unbounded

	SlippageMult  float64 // multiplier on the liquidity slippage penalty; 0 means 1
	FeePoints     float64 // flat round-trip fee per trade, in premium points
	MaxOpenTrades int     // concurrent position cap; 0 means exposure default
}

// Result is one pass's output.
type Result struct {
	StrategyID string
	Segment    string
	Bars       int
	Signals    []domain.SignalEvent
	Trades     []domain.SimulatedTrade
	KPIs       domain.StrategyKPIs
}

// Engine binds a rule and config to a segment for repeated passes over
// (possibly different) candle windows.
type Engine struct {
	segment string
	rule    strategy.Rule
	cfg     domain.StrategyEngineConfig
}

// New creates an engine. The config is validated on every Run so that a
// bad config fails fast before any simulation starts.
func New(segment string, rule strategy.Rule, cfg domain.StrategyEngineConfig) *Engine {
	return &Engine{segment: segment, rule: rule, cfg: cfg}
}

// position is the in-flight position state of one pass.
type position struct {
	open     bool
	dir      domain.Direction
	entryIdx int
	entry    float64
	stop     float64
	target   float64
	risk     float64
}

// Run executes one simulation pass. An empty candle window is a valid
// run with zero trades, not an error.
func (e *Engine) Run(ctx context.Context, candles []domain.Candle, snapshots []domain.MarketSnapshot, opts RunOptions) (*Result, error) {
	if err := strategy.ValidateConfig(e.cfg); err != nil {
		return nil, err
	}
	if err := validateCandles(candles); err != nil {
		return nil, err
	}

	window := filterWindow(candles, opts.FromMs, opts.ToMs)
	res := &Result{
		StrategyID: e.rule.ID(),
		Segment:    e.segment,
		Bars:       len(window),
	}
	if len(window) == 0 {
		return res, nil
	}

	env := strategy.NewEnv(e.cfg, window, snapshots)
	if err := e.rule.Prepare(env); err != nil {
		return nil, err
	}

	slipMult := opts.SlippageMult
	if slipMult <= 0 {
		slipMult = 1
	}

	warmup := e.cfg.ATRPeriod + 1
	if w := e.rule.Warmup(); w > warmup {
		warmup = w
	}

	var (
		risk        domain.RiskState
		pos         position
		lastExitIdx = -1 << 30 // no cooldown before the first trade

		day         int64 = -1
		dayRiskUsed float64
	)
	invalidator, hasInvalidator := e.rule.(strategy.Invalidator)

	for i := range window {
		if i%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		bar := window[i]

		if d := bar.TimestampMs / 86_400_000; d != day {
			day = d
			dayRiskUsed = 0
		}

		if pos.open {
			if exited, reason, price := e.checkExit(i, env, &pos, invalidator, hasInvalidator); exited {
				res.Trades = append(res.Trades, e.closeTrade(window, &pos, i, reason, price, slipMult, opts.FeePoints))
				risk.OpenTrades--
				pos = position{}
				lastExitIdx = i
			}
			continue
		}

		if i < warmup {
			continue
		}
		if i-lastExitIdx < e.cfg.MinBarsBetweenTrades {
			continue
		}
		if !exposure.StateFor(risk, opts.MaxOpenTrades).CanOpenNewPosition {
			continue
		}
		if e.cfg.DailyRiskCapPct > 0 && dayRiskUsed+e.cfg.RiskPerTradePct > e.cfg.DailyRiskCapPct {
			continue
		}
		atr := env.ATR[i]
		if atr <= 0 {
			continue
		}

		verdict := e.rule.Evaluate(i, env)
		if verdict == nil {
			continue
		}

		signal := e.buildSignal(bar, verdict, atr)
		res.Signals = append(res.Signals, signal)

		pos = position{
			open:     true,
			dir:      verdict.Direction,
			entryIdx: i,
			entry:    signal.Entry,
			stop:     signal.StopLoss,
			target:   signal.TakeProfit,
			risk:     abs(signal.Entry - signal.StopLoss),
		}
		risk.OpenTrades++
		dayRiskUsed += e.cfg.RiskPerTradePct
	}

	// A position still open at end of data closes on the last bar.
	if pos.open {
		last := len(window) - 1
		res.Trades = append(res.Trades, e.closeTrade(window, &pos, last, domain.ExitReasonEndOfData, window[last].Close, slipMult, opts.FeePoints))
		risk.OpenTrades--
	}

	res.KPIs = kpi.Compute(res.Trades)
	observability.RecordBarsEvaluated(len(window))
	observability.RecordSignals(res.StrategyID, len(res.Signals))
	return res, nil
}

// buildSignal derives entry, stop and target from the verdict and the
// current ATR: stop = entry -/+ stopAtrMult*ATR, target = entry +/- targetR*risk.
func (e *Engine) buildSignal(bar domain.Candle, v *strategy.Verdict, atr float64) domain.SignalEvent {
	entry := bar.Close
	riskPts := e.cfg.StopATRMult * atr

	stop := entry - riskPts
	target := entry + e.cfg.TargetR*riskPts
	if v.Direction == domain.DirectionShort {
		stop = entry + riskPts
		target = entry - e.cfg.TargetR*riskPts
	}

	return domain.SignalEvent{
		TimestampMs: bar.TimestampMs,
		Direction:   v.Direction,
		Confidence:  v.Confidence,
		Reason:      v.Reason,
		Entry:       entry,
		StopLoss:    stop,
		TakeProfit:  target,
	}
}

// checkExit tests exits in priority order on bar i: stop touch, target
// touch, max-bars timeout, invalidation. A bar whose range touches both
// stop and target resolves to the stop (conservative tie-break).
func (e *Engine) checkExit(i int, env *strategy.Env, pos *position, inv strategy.Invalidator, hasInv bool) (bool, string, float64) {
	if i <= pos.entryIdx {
		return false, "", 0
	}
	bar := env.Candles[i]

	if pos.dir == domain.DirectionLong {
		if bar.Low <= pos.stop {
			return true, domain.ExitReasonStopLoss, pos.stop
		}
		if bar.High >= pos.target {
			return true, domain.ExitReasonTakeProfit, pos.target
		}
	} else {
		if bar.High >= pos.stop {
			return true, domain.ExitReasonStopLoss, pos.stop
		}
		if bar.Low <= pos.target {
			return true, domain.ExitReasonTakeProfit, pos.target
		}
	}

	if i-pos.entryIdx >= e.cfg.MaxBarsInTrade {
		return true, domain.ExitReasonMaxBars, bar.Close
	}
	if hasInv && inv.ShouldInvalidate(i, env, pos.dir) {
		return true, domain.ExitReasonInvalidated, bar.Close
	}
	return false, "", 0
}

// closeTrade applies the liquidity slippage haircut to the exit fill,
// subtracts fees and builds the immutable trade record.
func (e *Engine) closeTrade(window []domain.Candle, pos *position, exitIdx int, reason string, exitPrice float64, slipMult, feePoints float64) domain.SimulatedTrade {
	exitBar := window[exitIdx]

	vol := exitBar.Volume
	est := liquidity.EstimateFor(exitPrice, &vol)
	slip := est.SlippagePenaltyPct * slipMult

	filled := exitPrice * (1 - slip)
	if pos.dir == domain.DirectionShort {
		filled = exitPrice * (1 + slip)
	}

	pnlPoints := filled - pos.entry
	if pos.dir == domain.DirectionShort {
		pnlPoints = pos.entry - filled
	}
	pnlPoints -= feePoints

	pnlR := 0.0
	if pos.risk > 0 {
		pnlR = pnlPoints / pos.risk
	}

	entryBar := window[pos.entryIdx]
	return domain.SimulatedTrade{
		TradeID:     idhash.ComputeTradeID(e.rule.ID(), e.segment, string(pos.dir), entryBar.TimestampMs),
		Direction:   pos.dir,
		EntryTimeMs: entryBar.TimestampMs,
		EntryPrice:  pos.entry,
		ExitTimeMs:  exitBar.TimestampMs,
		ExitPrice:   filled,
		BarsHeld:    exitIdx - pos.entryIdx,
		StopLoss:    pos.stop,
		TakeProfit:  pos.target,
		RiskPoints:  pos.risk,
		PnLPoints:   pnlPoints,
		PnLR:        pnlR,
		Outcome:     domain.ClassifyOutcome(pnlR),
		ExitReason:  reason,
	}
}

// validateCandles rejects series the indicator math cannot reason about:
// non-increasing timestamps or inverted high/low ranges.
func validateCandles(candles []domain.Candle) error {
	for i, c := range candles {
		if c.High < c.Low {
			return fmt.Errorf("%w: candle %d has high %f below low %f", ErrInputData, i, c.High, c.Low)
		}
		if i > 0 && c.TimestampMs <= candles[i-1].TimestampMs {
			return fmt.Errorf("%w: candle %d timestamp %d not after %d", ErrInputData, i, c.TimestampMs, candles[i-1].TimestampMs)
		}
	}
	return nil
}

func filterWindow(candles []domain.Candle, fromMs, toMs int64) []domain.Candle {
	if fromMs == 0 && toMs == 0 {
		return candles
	}
	var out []domain.Candle
	for _, c := range candles {
		if fromMs != 0 && c.TimestampMs < fromMs {
			continue
		}
		if toMs != 0 && c.TimestampMs > toMs {
			continue
		}
		out = append(out, c)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
