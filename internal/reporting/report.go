package reporting

import (
	"time"

	"options-edge-lab/internal/domain"
)

// RunReport is the renderable view of one terminal run.
type RunReport struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Segment     string
	StrategyID  string
	Status      domain.RunStatus

	// Evaluation window
	WindowStartMs int64
	WindowEndMs   int64

	// Policy identity
	PolicyVersion string
	Seed          int64

	// Baseline pass
	BaselineTrades int
	Baseline       domain.StrategyKPIs

	// Check breakdown (fixed order, contribution = score * weight)
	Checks []CheckRow

	Total float64
	Grade string

	// Error is set only for FAILED runs.
	Error string
}

// CheckRow is one robustness check's line in the breakdown table.
type CheckRow struct {
	Name         string
	Score        float64
	Weight       float64
	Contribution float64
	Detail       string
}

// SummaryRow is one run's line in a segment-level summary.
type SummaryRow struct {
	RunID      string
	StrategyID string
	Status     domain.RunStatus
	Trades     int
	WinRate    float64
	NetR       float64
	Total      float64
	Grade      string
}
