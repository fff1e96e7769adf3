package domain

// RunStatus is the lifecycle state of a run record.
type RunStatus string

// Run lifecycle states. COMPLETED and FAILED are terminal: a terminal
// record is never mutated or re-executed.
const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Terminal reports whether the status permits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RunParams identifies one suite invocation: one strategy, one segment,
// one date range, one engine config, one robustness policy.
type RunParams struct {
	StrategyID string
	Segment    string
	FromMs     int64
	ToMs       int64
	Engine     StrategyEngineConfig
	Robustness RobustnessConfig
}

// RunRecord is the persisted lifecycle record of a suite invocation.
type RunRecord struct {
	RunID      string
	Status     RunStatus
	Params     RunParams
	CreatedAt  int64 // ms since epoch
	StartedAt  int64 // 0 until RUNNING
	FinishedAt int64 // 0 until terminal
	Result     *RobustnessResult
	Error      string // set only when Status == FAILED
}

// Report is the persisted terminal-state report, written at most once
// per run ID.
type Report struct {
	RunID   string
	Segment string
	Status  RunStatus
	Params  RunParams
	Result  *RobustnessResult // nil on failure
	Error   string
}

// ExecutionEvent is a best-effort audit record. Recording failures must
// never fail the computation that produced them.
type ExecutionEvent struct {
	TimestampMs     int64
	Segment         string
	Mode            string // e.g. "backtest", "robustness"
	Status          string
	RequestPayload  string
	ResponsePayload string
}
