// Package robustness perturbs a backtest along several axes and fuses
// the stress signals into one defensible grade. Scoring is a versioned
// policy: weights, trial counts and percentiles come from
// domain.RobustnessConfig, never from ambient state.
package robustness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/observability"
)

// ErrSuiteAborted marks a suite that failed because a sub-run failed.
// Callers never receive a partial, unlabeled score.
var ErrSuiteAborted = errors.New("robustness suite aborted")

// RunFunc executes one evaluation pass under the given options. The
// suite drives all of its re-runs through this single seam, which is
// also what makes the scoring logic testable without a full engine.
type RunFunc func(ctx context.Context, opts engine.RunOptions) (*engine.Result, error)

// Suite evaluates one strategy/segment/date-range selection.
type Suite struct {
	cfg     domain.RobustnessConfig
	candles []domain.Candle
	run     RunFunc
}

// New creates a suite over an injected run function.
func New(cfg domain.RobustnessConfig, candles []domain.Candle, run RunFunc) *Suite {
	return &Suite{cfg: withDefaults(cfg), candles: candles, run: run}
}

// NewForEngine wires a suite to a concrete engine and its data.
func NewForEngine(cfg domain.RobustnessConfig, eng *engine.Engine, candles []domain.Candle, snapshots []domain.MarketSnapshot) *Suite {
	return New(cfg, candles, func(ctx context.Context, opts engine.RunOptions) (*engine.Result, error) {
		return eng.Run(ctx, candles, snapshots, opts)
	})
}

// checkOrder fixes the order of the score breakdown. The checks execute
// concurrently; results land in slots indexed by this order so the
// composite cannot depend on scheduling.
var checkOrder = []string{
	domain.CheckWalkForward,
	domain.CheckMonteCarlo,
	domain.CheckSlippageStress,
	domain.CheckBrokerageStress,
	domain.CheckRegimeStability,
}

// Run executes the baseline pass and all enabled checks, then fuses the
// sub-scores into a composite total and grade. Any sub-run failure
// aborts the whole suite.
func (s *Suite) Run(ctx context.Context) (*domain.RobustnessResult, error) {
	baseline, err := s.run(ctx, engine.RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: baseline run: %v", ErrSuiteAborted, err)
	}

	enabled := s.enabledChecks()
	weights := effectiveWeights(s.cfg.Weights, enabled)

	result := &domain.RobustnessResult{
		PolicyVersion: s.cfg.PolicyVersion,
		Seed:          s.cfg.Seed,
		Baseline:      baseline.KPIs,
		BaselineTrade: len(baseline.Trades),
	}

	// A strategy that never trades has no demonstrated edge to certify.
	if len(baseline.Trades) == 0 {
		for _, name := range checkOrder {
			if !enabled[name] {
				continue
			}
			result.Scores = append(result.Scores, domain.CheckScore{
				Name: name, Score: 0, Weight: weights[name],
				Detail: "no trades in baseline window",
			})
		}
		result.Grade = domain.GradeFor(0)
		return result, nil
	}

	scores := make([]*domain.CheckScore, len(checkOrder))
	g, gctx := errgroup.WithContext(ctx)

	for slot, name := range checkOrder {
		if !enabled[name] {
			continue
		}
		slot, name := slot, name
		g.Go(func() error {
			score, detail, err := s.runCheck(gctx, name, baseline)
			if err != nil {
				return fmt.Errorf("%w: check %s: %v", ErrSuiteAborted, name, err)
			}
			scores[slot] = &domain.CheckScore{
				Name:   name,
				Score:  clamp(score, 0, 100),
				Weight: weights[name],
				Detail: detail,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0.0
	for _, cs := range scores {
		if cs == nil {
			continue
		}
		result.Scores = append(result.Scores, *cs)
		total += cs.Score * cs.Weight
	}
	result.Total = clamp(total, 0, 100)
	result.Grade = domain.GradeFor(result.Total)
	return result, nil
}

func (s *Suite) runCheck(ctx context.Context, name string, baseline *engine.Result) (float64, string, error) {
	start := time.Now()
	defer func() {
		observability.RecordCheckDuration(name, time.Since(start).Seconds())
	}()

	switch name {
	case domain.CheckWalkForward:
		return s.walkForward(ctx)
	case domain.CheckMonteCarlo:
		return s.monteCarlo(baseline)
	case domain.CheckSlippageStress:
		return s.stress(ctx, baseline, engine.RunOptions{SlippageMult: s.cfg.SlippageStressMult})
	case domain.CheckBrokerageStress:
		return s.stress(ctx, baseline, engine.RunOptions{FeePoints: s.cfg.BrokerageFeePts})
	case domain.CheckRegimeStability:
		return s.regimeStability(baseline)
	default:
		return 0, "", fmt.Errorf("unknown check %q", name)
	}
}

func (s *Suite) enabledChecks() map[string]bool {
	if s.cfg.EnabledChecks == nil {
		all := make(map[string]bool, len(checkOrder))
		for _, name := range checkOrder {
			all[name] = true
		}
		return all
	}
	return s.cfg.EnabledChecks
}

// effectiveWeights renormalizes the policy weights over the enabled
// checks so disabled checks redistribute proportionally.
func effectiveWeights(weights map[string]float64, enabled map[string]bool) map[string]float64 {
	sum := 0.0
	for _, name := range checkOrder {
		if enabled[name] {
			sum += weights[name]
		}
	}
	out := make(map[string]float64, len(weights))
	if sum <= 0 {
		return out
	}
	for _, name := range checkOrder {
		if enabled[name] {
			out[name] = weights[name] / sum
		}
	}
	return out
}

// withDefaults fills zero-valued policy fields from the v1 defaults so a
// partially specified config still grades deterministically.
func withDefaults(cfg domain.RobustnessConfig) domain.RobustnessConfig {
	def := domain.DefaultRobustnessConfig
	if cfg.PolicyVersion == "" {
		cfg.PolicyVersion = def.PolicyVersion
	}
	if cfg.Trials <= 0 {
		cfg.Trials = def.Trials
	}
	if cfg.WalkForwardWindows <= 0 {
		cfg.WalkForwardWindows = def.WalkForwardWindows
	}
	if cfg.TailPercentile <= 0 || cfg.TailPercentile >= 1 {
		cfg.TailPercentile = def.TailPercentile
	}
	if cfg.SlippageStressMult <= 1 {
		cfg.SlippageStressMult = def.SlippageStressMult
	}
	if cfg.BrokerageFeePts <= 0 {
		cfg.BrokerageFeePts = def.BrokerageFeePts
	}
	if cfg.RegimeVolWindow <= 1 {
		cfg.RegimeVolWindow = def.RegimeVolWindow
	}
	if cfg.Weights == nil {
		cfg.Weights = def.Weights
	}
	return cfg
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
