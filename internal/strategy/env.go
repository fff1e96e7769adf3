package strategy

import (
	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/indicator"
)

// Env is the read-only per-run environment shared by the engine and the
// rule: the candle series, aligned snapshots, the common ATR series and
// resampled higher-timeframe series. Built once per run; safe to share
// across concurrent runs because nothing mutates it after construction.
type Env struct {
	Cfg       domain.StrategyEngineConfig
	Candles   []domain.Candle
	Snapshots []domain.MarketSnapshot

	Highs   []float64
	Lows    []float64
	Closes  []float64
	Volumes []float64

	ATR []float64

	// Higher maps an interval in minutes to its resampled series.
	Higher map[int][]domain.Candle
}

// NewEnv builds the environment for one evaluation pass.
func NewEnv(cfg domain.StrategyEngineConfig, candles []domain.Candle, snapshots []domain.MarketSnapshot) *Env {
	highs, lows, closes, volumes := indicator.Split(candles)

	env := &Env{
		Cfg:       cfg,
		Candles:   candles,
		Snapshots: snapshots,
		Highs:     highs,
		Lows:      lows,
		Closes:    closes,
		Volumes:   volumes,
		ATR:       indicator.ATR(candles, cfg.ATRPeriod),
		Higher:    make(map[int][]domain.Candle, len(cfg.HigherIntervalsMin)),
	}

	for _, interval := range cfg.HigherIntervalsMin {
		env.Higher[interval] = indicator.Resample(candles, interval)
	}

	return env
}

// SnapshotAt returns the latest snapshot at or before ts, or nil when
// none exists yet. Snapshots are ordered by timestamp.
func (e *Env) SnapshotAt(ts int64) *domain.MarketSnapshot {
	for i := len(e.Snapshots) - 1; i >= 0; i-- {
		if e.Snapshots[i].TimestampMs <= ts {
			return &e.Snapshots[i]
		}
	}
	return nil
}

// HigherIndex returns the resampled series for interval and the index of
// its last completed bar at ts. The index is -1 while no higher bar has
// closed; the forming bar is never exposed.
func (e *Env) HigherIndex(interval int, ts int64) ([]domain.Candle, int) {
	series, ok := e.Higher[interval]
	if !ok {
		return nil, -1
	}
	return series, indicator.LastCompletedIndex(series, interval, ts)
}
