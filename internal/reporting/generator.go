package reporting

import (
	"context"
	"time"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	reportStore storage.ReportStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(reportStore storage.ReportStore) *Generator {
	return &Generator{
		reportStore: reportStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the renderable report for one run.
func (g *Generator) Generate(ctx context.Context, runID string) (*RunReport, error) {
	stored, err := g.reportStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return g.build(stored), nil
}

// GenerateSegment builds summary rows for every stored run of a segment.
func (g *Generator) GenerateSegment(ctx context.Context, segment string) ([]SummaryRow, error) {
	stored, err := g.reportStore.GetBySegment(ctx, segment)
	if err != nil {
		return nil, err
	}

	rows := make([]SummaryRow, 0, len(stored))
	for _, rep := range stored {
		row := SummaryRow{
			RunID:      rep.RunID,
			StrategyID: rep.Params.StrategyID,
			Status:     rep.Status,
		}
		if rep.Result != nil {
			row.Trades = rep.Result.BaselineTrade
			row.WinRate = rep.Result.Baseline.WinRate
			row.NetR = rep.Result.Baseline.NetR
			row.Total = rep.Result.Total
			row.Grade = rep.Result.Grade
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *Generator) build(stored *domain.Report) *RunReport {
	out := &RunReport{
		GeneratedAt:   g.now(),
		RunID:         stored.RunID,
		Segment:       stored.Segment,
		StrategyID:    stored.Params.StrategyID,
		Status:        stored.Status,
		WindowStartMs: stored.Params.FromMs,
		WindowEndMs:   stored.Params.ToMs,
		PolicyVersion: stored.Params.Robustness.PolicyVersion,
		Seed:          stored.Params.Robustness.Seed,
		Error:         stored.Error,
	}

	if stored.Result == nil {
		return out
	}

	res := stored.Result
	out.PolicyVersion = res.PolicyVersion
	out.Seed = res.Seed
	out.BaselineTrades = res.BaselineTrade
	out.Baseline = res.Baseline
	out.Total = res.Total
	out.Grade = res.Grade

	out.Checks = make([]CheckRow, 0, len(res.Scores))
	for _, cs := range res.Scores {
		out.Checks = append(out.Checks, CheckRow{
			Name:         cs.Name,
			Score:        cs.Score,
			Weight:       cs.Weight,
			Contribution: cs.Score * cs.Weight,
			Detail:       cs.Detail,
		})
	}
	return out
}
