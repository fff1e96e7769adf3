package verification

import (
	"context"
	"errors"
	"fmt"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/robustness"
	"options-edge-lab/internal/storage"
	"options-edge-lab/internal/strategy"
)

// Verifier errors.
var (
	ErrRunNotFound     = errors.New("run not found")
	ErrRunNotCompleted = errors.New("run is not in COMPLETED state")
)

// RunVerifier re-executes completed runs against the current market
// data and compares results.
type RunVerifier struct {
	runs      storage.RunStore
	reports   storage.ReportStore
	candles   storage.CandleSource
	snapshots storage.SnapshotSource
}

// Options for creating a RunVerifier. SnapshotSource is optional.
type Options struct {
	RunStore       storage.RunStore
	ReportStore    storage.ReportStore
	CandleSource   storage.CandleSource
	SnapshotSource storage.SnapshotSource
}

// NewRunVerifier creates a new RunVerifier.
func NewRunVerifier(opts Options) *RunVerifier {
	return &RunVerifier{
		runs:      opts.RunStore,
		reports:   opts.ReportStore,
		candles:   opts.CandleSource,
		snapshots: opts.SnapshotSource,
	}
}

// VerifyRun replays one completed run from its stored parameters and
// diffs the result. Only COMPLETED runs can be verified; a failed run
// has no result to compare.
func (v *RunVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	rec, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	if rec.Status != domain.RunStatusCompleted || rec.Result == nil {
		return nil, fmt.Errorf("%w: run %s is %s", ErrRunNotCompleted, runID, rec.Status)
	}

	replayed, err := v.replay(ctx, rec.Params)
	if err != nil {
		return nil, err
	}

	divergences := CompareResults(rec.Result, replayed)
	return &VerificationResult{
		RunID:         runID,
		Match:         len(divergences) == 0,
		Divergences:   divergences,
		StoredGrade:   rec.Result.Grade,
		ReplayedGrade: replayed.Grade,
	}, nil
}

// VerifySegment verifies every completed run recorded for a segment.
// Failed runs are skipped, not counted as divergences.
func (v *RunVerifier) VerifySegment(ctx context.Context, segment string) (*VerificationReport, error) {
	stored, err := v.reports.GetBySegment(ctx, segment)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{}
	for _, rep := range stored {
		if rep.Status != domain.RunStatusCompleted {
			continue
		}
		res, err := v.VerifyRun(ctx, rep.RunID)
		if err != nil {
			return nil, fmt.Errorf("verify run %s: %w", rep.RunID, err)
		}
		report.Total++
		if res.Match {
			report.Matched++
		} else {
			report.Diverged++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// replay runs the suite exactly as the orchestrator does, from the
// stored parameters.
func (v *RunVerifier) replay(ctx context.Context, params domain.RunParams) (*domain.RobustnessResult, error) {
	rule, err := strategy.FromID(params.StrategyID)
	if err != nil {
		return nil, err
	}

	candles, err := v.candles.GetByTimeRange(ctx, params.Segment, params.FromMs, params.ToMs)
	if err != nil {
		return nil, err
	}

	var snapshots []domain.MarketSnapshot
	if v.snapshots != nil {
		snapshots, err = v.snapshots.GetByTimeRange(ctx, params.Segment, params.FromMs, params.ToMs)
		if err != nil {
			return nil, err
		}
	}

	eng := engine.New(params.Segment, rule, params.Engine)
	suite := robustness.NewForEngine(params.Robustness, eng, candles, snapshots)
	return suite.Run(ctx)
}
