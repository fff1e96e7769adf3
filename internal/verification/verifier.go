// Package verification re-executes completed runs from their stored
// parameters and diffs the fresh result against the persisted one. A
// divergence means either the market data changed underneath a run or
// the evaluation is not deterministic; both are worth an alarm.
package verification

import (
	"fmt"
	"math"

	"options-edge-lab/internal/domain"
)

// floatEpsilon bounds acceptable rounding differences when comparing
// recomputed scores to stored ones.
const floatEpsilon = 1e-9

// FieldDivergence records one field that differs between the stored and
// replayed result.
type FieldDivergence struct {
	Field    string
	Stored   string
	Replayed string
}

// VerificationResult is the outcome of verifying one run.
type VerificationResult struct {
	RunID         string
	Match         bool
	Divergences   []FieldDivergence
	StoredGrade   string
	ReplayedGrade string
}

// VerificationReport aggregates results across a set of runs.
type VerificationReport struct {
	Total    int
	Matched  int
	Diverged int
	Results  []*VerificationResult
}

// CompareResults diffs two robustness results field by field.
func CompareResults(stored, replayed *domain.RobustnessResult) []FieldDivergence {
	var out []FieldDivergence

	add := func(field, s, r string) {
		out = append(out, FieldDivergence{Field: field, Stored: s, Replayed: r})
	}

	if stored.PolicyVersion != replayed.PolicyVersion {
		add("policy_version", stored.PolicyVersion, replayed.PolicyVersion)
	}
	if stored.Seed != replayed.Seed {
		add("seed", fmt.Sprintf("%d", stored.Seed), fmt.Sprintf("%d", replayed.Seed))
	}
	if stored.BaselineTrade != replayed.BaselineTrade {
		add("baseline_trades", fmt.Sprintf("%d", stored.BaselineTrade), fmt.Sprintf("%d", replayed.BaselineTrade))
	}
	if stored.Grade != replayed.Grade {
		add("grade", stored.Grade, replayed.Grade)
	}
	if !floatEquals(stored.Total, replayed.Total) {
		add("total", formatFloat(stored.Total), formatFloat(replayed.Total))
	}

	compareKPIs(&out, stored.Baseline, replayed.Baseline)

	if len(stored.Scores) != len(replayed.Scores) {
		add("scores.len", fmt.Sprintf("%d", len(stored.Scores)), fmt.Sprintf("%d", len(replayed.Scores)))
		return out
	}
	for i := range stored.Scores {
		s, r := stored.Scores[i], replayed.Scores[i]
		if s.Name != r.Name {
			add(fmt.Sprintf("scores[%d].name", i), s.Name, r.Name)
			continue
		}
		if !floatEquals(s.Score, r.Score) {
			add("scores."+s.Name+".score", formatFloat(s.Score), formatFloat(r.Score))
		}
		if !floatEquals(s.Weight, r.Weight) {
			add("scores."+s.Name+".weight", formatFloat(s.Weight), formatFloat(r.Weight))
		}
	}
	return out
}

func compareKPIs(out *[]FieldDivergence, stored, replayed domain.StrategyKPIs) {
	intFields := []struct {
		name string
		s, r int
	}{
		{"baseline.trades", stored.Trades, replayed.Trades},
		{"baseline.wins", stored.Wins, replayed.Wins},
		{"baseline.losses", stored.Losses, replayed.Losses},
		{"baseline.scratches", stored.Scratches, replayed.Scratches},
	}
	for _, f := range intFields {
		if f.s != f.r {
			*out = append(*out, FieldDivergence{Field: f.name,
				Stored: fmt.Sprintf("%d", f.s), Replayed: fmt.Sprintf("%d", f.r)})
		}
	}

	floatFields := []struct {
		name string
		s, r float64
	}{
		{"baseline.win_rate", stored.WinRate, replayed.WinRate},
		{"baseline.net_r", stored.NetR, replayed.NetR},
		{"baseline.expectancy_r", stored.ExpectancyR, replayed.ExpectancyR},
		{"baseline.profit_factor", stored.ProfitFactor, replayed.ProfitFactor},
		{"baseline.max_drawdown_r", stored.MaxDrawdownR, replayed.MaxDrawdownR},
		{"baseline.sharpe_like", stored.SharpeLike, replayed.SharpeLike},
	}
	for _, f := range floatFields {
		if !floatEquals(f.s, f.r) {
			*out = append(*out, FieldDivergence{Field: f.name,
				Stored: formatFloat(f.s), Replayed: formatFloat(f.r)})
		}
	}
}

func floatEquals(a, b float64) bool {
	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return true
	}
	return math.Abs(a-b) < floatEpsilon
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.9f", v)
}
