package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"options-edge-lab/internal/domain"
)

// RenderMarkdown renders a run report as Markdown string.
func RenderMarkdown(r *RunReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Strategy Robustness Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))

	// Run identity
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Strategy | %s |\n", r.StrategyID))
	sb.WriteString(fmt.Sprintf("| Segment | %s |\n", r.Segment))
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Status))
	sb.WriteString(fmt.Sprintf("| Window Start (ms) | %d |\n", r.WindowStartMs))
	sb.WriteString(fmt.Sprintf("| Window End (ms) | %d |\n", r.WindowEndMs))
	sb.WriteString(fmt.Sprintf("| Policy | %s |\n", r.PolicyVersion))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.Seed))
	sb.WriteString("\n")

	if r.Status == domain.RunStatusFailed {
		sb.WriteString("## Failure\n\n")
		sb.WriteString(fmt.Sprintf("```\n%s\n```\n\n", r.Error))
		return sb.String()
	}

	// Baseline KPIs
	sb.WriteString("## Baseline\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", r.BaselineTrades))
	sb.WriteString(fmt.Sprintf("| Wins / Losses / Scratches | %d / %d / %d |\n",
		r.Baseline.Wins, r.Baseline.Losses, r.Baseline.Scratches))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Baseline.WinRate))
	sb.WriteString(fmt.Sprintf("| Net R | %.4f |\n", r.Baseline.NetR))
	sb.WriteString(fmt.Sprintf("| Expectancy R | %.4f |\n", r.Baseline.ExpectancyR))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(r.Baseline.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown R | %.4f |\n", r.Baseline.MaxDrawdownR))
	sb.WriteString(fmt.Sprintf("| Sharpe-like | %.4f |\n", r.Baseline.SharpeLike))
	sb.WriteString("\n")

	// Check breakdown
	sb.WriteString("## Robustness Checks\n\n")
	if len(r.Checks) > 0 {
		sb.WriteString("| Check | Score | Weight | Contribution | Detail |\n")
		sb.WriteString("|-------|-------|--------|--------------|--------|\n")
		for _, c := range r.Checks {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %s |\n",
				c.Name, c.Score, c.Weight, c.Contribution, c.Detail))
		}
	} else {
		sb.WriteString("No checks were enabled for this run.\n")
	}
	sb.WriteString("\n")

	// Verdict
	sb.WriteString("## Verdict\n\n")
	sb.WriteString(fmt.Sprintf("Composite: **%.2f** — Grade: **%s**\n\n", r.Total, r.Grade))

	return sb.String()
}

// formatProfitFactor keeps the no-loss sentinel readable in tables.
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", pf)
}
