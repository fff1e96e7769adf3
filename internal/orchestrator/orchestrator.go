// Package orchestrator coordinates run execution end to end.
// Flow: resolve run ID → lifecycle record → backtest + robustness suite →
// terminal record → report.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/idhash"
	"options-edge-lab/internal/observability"
	"options-edge-lab/internal/robustness"
	"options-edge-lab/internal/storage"
	"options-edge-lab/internal/strategy"
)

// ErrNoMarketData is returned when the requested window holds no candles.
var ErrNoMarketData = errors.New("no market data in window")

// Orchestrator executes runs against injected stores. Duplicate
// submissions of the same parameters share one execution: the run ID is
// deterministic, in-flight requests coalesce, and terminal records are
// never recomputed.
type Orchestrator struct {
	runs      storage.RunStore
	reports   storage.ReportStore
	audit     storage.AuditStore
	candles   storage.CandleSource
	snapshots storage.SnapshotSource

	logger zerolog.Logger
	nowMs  func() int64

	group singleflight.Group
}

// Options for creating an Orchestrator. AuditStore and SnapshotSource
// are optional; the rest are required.
type Options struct {
	RunStore       storage.RunStore
	ReportStore    storage.ReportStore
	AuditStore     storage.AuditStore
	CandleSource   storage.CandleSource
	SnapshotSource storage.SnapshotSource

	Logger zerolog.Logger

	// NowMs overrides the clock, in ms since epoch. Tests use this.
	NowMs func() int64
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	nowMs := opts.NowMs
	if nowMs == nil {
		nowMs = func() int64 { return time.Now().UnixMilli() }
	}
	return &Orchestrator{
		runs:      opts.RunStore,
		reports:   opts.ReportStore,
		audit:     opts.AuditStore,
		candles:   opts.CandleSource,
		snapshots: opts.SnapshotSource,
		logger:    opts.Logger,
		nowMs:     nowMs,
	}
}

// RunID resolves the deterministic identifier for a parameter set. The
// full set is hashed, so runs that differ in any engine knob or policy
// setting never collide.
func RunID(params domain.RunParams) string {
	return idhash.ComputeRunID(params)
}

// Execute runs the full evaluation for the given parameters and returns
// the terminal report. Identical parameter sets submitted concurrently
// share one execution; a parameter set that already reached a terminal
// state returns the stored report without recomputing anything.
func (o *Orchestrator) Execute(ctx context.Context, params domain.RunParams) (*domain.Report, error) {
	runID := RunID(params)

	v, err, shared := o.group.Do(runID, func() (interface{}, error) {
		return o.execute(ctx, runID, params)
	})
	if shared {
		observability.RecordRunCoalesced()
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.Report), nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, params domain.RunParams) (*domain.Report, error) {
	log := o.logger.With().
		Str("run_id", runID).
		Str("strategy", params.StrategyID).
		Str("segment", params.Segment).
		Logger()

	// A terminal record is final: hand back what was already computed.
	existing, err := o.runs.GetByID(ctx, runID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if existing != nil && existing.Status.Terminal() {
		log.Debug().Str("status", string(existing.Status)).Msg("run already terminal, returning stored report")
		return o.storedReport(ctx, runID, existing)
	}

	if existing == nil {
		rec := &domain.RunRecord{
			RunID:     runID,
			Status:    domain.RunStatusPending,
			Params:    params,
			CreatedAt: o.nowMs(),
		}
		if err := o.runs.Create(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	startedAt := o.nowMs()
	if err := o.runs.MarkRunning(ctx, runID, startedAt); err != nil {
		return nil, fmt.Errorf("mark run running: %w", err)
	}
	observability.RecordRunStarted(params.Segment)
	log.Info().Int64("from_ms", params.FromMs).Int64("to_ms", params.ToMs).Msg("run started")

	result, runErr := o.evaluate(ctx, params)

	// A cancelled run stays RUNNING: the record documents the attempt and
	// a later submission with the same parameters picks it up cleanly.
	if ctx.Err() != nil {
		log.Warn().Msg("run cancelled before reaching a terminal state")
		return nil, ctx.Err()
	}

	finishedAt := o.nowMs()
	durationSec := float64(finishedAt-startedAt) / 1000

	if runErr != nil {
		if err := o.runs.MarkFailed(ctx, runID, finishedAt, runErr.Error()); err != nil {
			return nil, fmt.Errorf("mark run failed: %w", err)
		}
		report := &domain.Report{
			RunID:   runID,
			Segment: params.Segment,
			Status:  domain.RunStatusFailed,
			Params:  params,
			Error:   runErr.Error(),
		}
		o.persistReport(ctx, log, report)
		o.recordAudit(ctx, log, params, "FAILED", runErr.Error())
		observability.RecordRunCompleted(params.Segment, string(domain.RunStatusFailed), durationSec)
		log.Error().Err(runErr).Msg("run failed")
		return report, nil
	}

	if err := o.runs.MarkCompleted(ctx, runID, finishedAt, result); err != nil {
		return nil, fmt.Errorf("mark run completed: %w", err)
	}
	report := &domain.Report{
		RunID:   runID,
		Segment: params.Segment,
		Status:  domain.RunStatusCompleted,
		Params:  params,
		Result:  result,
	}
	o.persistReport(ctx, log, report)
	o.recordAudit(ctx, log, params, "COMPLETED", result.Grade)
	observability.RecordRunCompleted(params.Segment, string(domain.RunStatusCompleted), durationSec)
	observability.RecordGrade(result.Grade)
	observability.RecordTrades(params.StrategyID, domain.OutcomeWin, result.Baseline.Wins)
	observability.RecordTrades(params.StrategyID, domain.OutcomeLoss, result.Baseline.Losses)
	observability.RecordTrades(params.StrategyID, domain.OutcomeScratch, result.Baseline.Scratches)
	log.Info().Str("grade", result.Grade).Float64("total", result.Total).Msg("run completed")

	return report, nil
}

// evaluate loads market data and runs the robustness suite.
func (o *Orchestrator) evaluate(ctx context.Context, params domain.RunParams) (*domain.RobustnessResult, error) {
	candles, err := o.candles.GetByTimeRange(ctx, params.Segment, params.FromMs, params.ToMs)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s [%d, %d]", ErrNoMarketData, params.Segment, params.FromMs, params.ToMs)
	}

	var snapshots []domain.MarketSnapshot
	if o.snapshots != nil {
		snapshots, err = o.snapshots.GetByTimeRange(ctx, params.Segment, params.FromMs, params.ToMs)
		if err != nil {
			return nil, fmt.Errorf("load snapshots: %w", err)
		}
	}

	rule, err := strategy.FromID(params.StrategyID)
	if err != nil {
		return nil, err
	}

	eng := engine.New(params.Segment, rule, params.Engine)
	suite := robustness.NewForEngine(params.Robustness, eng, candles, snapshots)
	return suite.Run(ctx)
}

// storedReport returns the persisted report for a terminal run,
// synthesizing one from the run record if the report write was lost.
func (o *Orchestrator) storedReport(ctx context.Context, runID string, rec *domain.RunRecord) (*domain.Report, error) {
	report, err := o.reports.GetByRunID(ctx, runID)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup report: %w", err)
	}

	report = &domain.Report{
		RunID:   rec.RunID,
		Segment: rec.Params.Segment,
		Status:  rec.Status,
		Params:  rec.Params,
		Result:  rec.Result,
		Error:   rec.Error,
	}
	o.persistReport(ctx, o.logger, report)
	return report, nil
}

// persistReport writes the report at most once. A duplicate key means a
// concurrent writer got there first; that is a success, not a failure.
func (o *Orchestrator) persistReport(ctx context.Context, log zerolog.Logger, report *domain.Report) {
	if err := o.reports.Insert(ctx, report); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		log.Error().Err(err).Msg("report write failed")
	}
}

// recordAudit writes an execution event, best effort.
func (o *Orchestrator) recordAudit(ctx context.Context, log zerolog.Logger, params domain.RunParams, status, response string) {
	if o.audit == nil {
		return
	}

	request, err := json.Marshal(params)
	if err != nil {
		request = []byte("{}")
	}
	event := &domain.ExecutionEvent{
		TimestampMs:     o.nowMs(),
		Segment:         params.Segment,
		Mode:            "robustness",
		Status:          status,
		RequestPayload:  string(request),
		ResponsePayload: response,
	}
	if err := o.audit.Record(ctx, event); err != nil {
		observability.RecordAuditDropped()
		log.Warn().Err(err).Msg("audit write dropped")
	}
}
