package verification

import (
	"context"
	"errors"
	"testing"

	"options-edge-lab/internal/config"
	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/marketdata"
	"options-edge-lab/internal/robustness"
	"options-edge-lab/internal/storage/memory"
	"options-edge-lab/internal/strategy"
)

type fixture struct {
	runs      *memory.RunStore
	reports   *memory.ReportStore
	candles   *memory.CandleSource
	snapshots *memory.SnapshotSource
	verifier  *RunVerifier
	params    domain.RunParams
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gen := marketdata.DefaultSyntheticConfig
	gen.Bars = 300
	candles := marketdata.Candles(gen)
	snapshots := marketdata.Snapshots(gen, candles)

	candleSrc := memory.NewCandleSource()
	candleSrc.Load("NIFTY", candles)
	snapshotSrc := memory.NewSnapshotSource()
	snapshotSrc.Load("NIFTY", snapshots)

	cfg := config.Default()
	robCfg := cfg.RobustnessConfig()
	robCfg.Trials = 100

	f := &fixture{
		runs:      memory.NewRunStore(),
		reports:   memory.NewReportStore(),
		candles:   candleSrc,
		snapshots: snapshotSrc,
		params: domain.RunParams{
			StrategyID: strategy.StrategyVWAPReversion,
			Segment:    "NIFTY",
			FromMs:     candles[0].TimestampMs,
			ToMs:       candles[len(candles)-1].TimestampMs,
			Engine:     cfg.EngineConfig(),
			Robustness: robCfg,
		},
	}
	f.verifier = NewRunVerifier(Options{
		RunStore:       f.runs,
		ReportStore:    f.reports,
		CandleSource:   f.candles,
		SnapshotSource: f.snapshots,
	})
	return f
}

// evaluate runs the suite the same way the orchestrator would.
func (f *fixture) evaluate(t *testing.T) *domain.RobustnessResult {
	t.Helper()

	rule, err := strategy.FromID(f.params.StrategyID)
	if err != nil {
		t.Fatalf("FromID: %v", err)
	}
	candles, err := f.candles.GetByTimeRange(context.Background(), f.params.Segment, f.params.FromMs, f.params.ToMs)
	if err != nil {
		t.Fatalf("GetByTimeRange: %v", err)
	}
	snaps, err := f.snapshots.GetByTimeRange(context.Background(), f.params.Segment, f.params.FromMs, f.params.ToMs)
	if err != nil {
		t.Fatalf("GetByTimeRange: %v", err)
	}

	eng := engine.New(f.params.Segment, rule, f.params.Engine)
	result, err := robustness.NewForEngine(f.params.Robustness, eng, candles, snaps).Run(context.Background())
	if err != nil {
		t.Fatalf("suite run: %v", err)
	}
	return result
}

func (f *fixture) storeCompleted(t *testing.T, runID string, result *domain.RobustnessResult) {
	t.Helper()
	err := f.runs.Create(context.Background(), &domain.RunRecord{
		RunID:      runID,
		Status:     domain.RunStatusCompleted,
		Params:     f.params,
		CreatedAt:  1,
		StartedAt:  2,
		FinishedAt: 3,
		Result:     result,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = f.reports.Insert(context.Background(), &domain.Report{
		RunID:   runID,
		Segment: f.params.Segment,
		Status:  domain.RunStatusCompleted,
		Params:  f.params,
		Result:  result,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestVerifyRun_DeterministicReplayMatches(t *testing.T) {
	f := newFixture(t)
	f.storeCompleted(t, "run-1", f.evaluate(t))

	res, err := f.verifier.VerifyRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("VerifyRun: %v", err)
	}
	if !res.Match {
		t.Fatalf("expected match, divergences: %+v", res.Divergences)
	}
	if res.StoredGrade != res.ReplayedGrade {
		t.Errorf("grades differ: %s vs %s", res.StoredGrade, res.ReplayedGrade)
	}
}

func TestVerifyRun_TamperedResultDiverges(t *testing.T) {
	f := newFixture(t)
	result := f.evaluate(t)

	tampered := *result
	tampered.Grade = "A"
	tampered.Total = 99.5
	f.storeCompleted(t, "run-1", &tampered)

	res, err := f.verifier.VerifyRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("VerifyRun: %v", err)
	}
	if res.Match && result.Grade != "A" {
		t.Fatal("tampered result should diverge")
	}

	fields := map[string]bool{}
	for _, d := range res.Divergences {
		fields[d.Field] = true
	}
	if !fields["total"] {
		t.Errorf("expected a total divergence, got %+v", res.Divergences)
	}
}

func TestVerifyRun_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.verifier.VerifyRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestVerifyRun_FailedRunRejected(t *testing.T) {
	f := newFixture(t)
	err := f.runs.Create(context.Background(), &domain.RunRecord{
		RunID:  "run-failed",
		Status: domain.RunStatusFailed,
		Params: f.params,
		Error:  "no market data in window",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.verifier.VerifyRun(context.Background(), "run-failed")
	if !errors.Is(err, ErrRunNotCompleted) {
		t.Fatalf("err = %v, want ErrRunNotCompleted", err)
	}
}

func TestVerifySegment_SkipsFailedRuns(t *testing.T) {
	f := newFixture(t)
	f.storeCompleted(t, "run-ok", f.evaluate(t))

	err := f.reports.Insert(context.Background(), &domain.Report{
		RunID:   "run-bad",
		Segment: f.params.Segment,
		Status:  domain.RunStatusFailed,
		Params:  f.params,
		Error:   "boom",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	report, err := f.verifier.VerifySegment(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("VerifySegment: %v", err)
	}
	if report.Total != 1 || report.Matched != 1 || report.Diverged != 0 {
		t.Fatalf("report = %+v, want 1 verified match", report)
	}
}

func TestCompareResults_CheckScoreDrift(t *testing.T) {
	base := &domain.RobustnessResult{
		PolicyVersion: "v1",
		Seed:          1,
		Scores: []domain.CheckScore{
			{Name: domain.CheckWalkForward, Score: 75, Weight: 0.5},
			{Name: domain.CheckMonteCarlo, Score: 60, Weight: 0.5},
		},
		Total: 67.5,
		Grade: "B",
	}
	drifted := *base
	drifted.Scores = []domain.CheckScore{
		{Name: domain.CheckWalkForward, Score: 74, Weight: 0.5},
		{Name: domain.CheckMonteCarlo, Score: 60, Weight: 0.5},
	}

	divs := CompareResults(base, &drifted)
	if len(divs) != 1 {
		t.Fatalf("len(divs) = %d, want 1: %+v", len(divs), divs)
	}
	if divs[0].Field != "scores.walk_forward.score" {
		t.Errorf("field = %q", divs[0].Field)
	}

	if got := CompareResults(base, base); len(got) != 0 {
		t.Errorf("self-compare produced divergences: %+v", got)
	}
}
