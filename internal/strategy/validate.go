package strategy

import (
	"errors"
	"fmt"

	"options-edge-lab/internal/domain"
)

// ErrConfig marks an invalid StrategyEngineConfig. Config failures are
// detected before any simulation starts.
var ErrConfig = errors.New("invalid strategy engine config")

// ValidateConfig fails fast on parameter values that would make the
// simulation meaningless.
func ValidateConfig(cfg domain.StrategyEngineConfig) error {
	if cfg.IntervalMin <= 0 {
		return fmt.Errorf("%w: execution interval must be positive, got %d", ErrConfig, cfg.IntervalMin)
	}
	if cfg.ATRPeriod <= 0 {
		return fmt.Errorf("%w: ATR period must be positive, got %d", ErrConfig, cfg.ATRPeriod)
	}
	if cfg.StopATRMult <= 0 {
		return fmt.Errorf("%w: stop ATR multiple must be positive, got %f", ErrConfig, cfg.StopATRMult)
	}
	if cfg.TargetR <= 0 {
		return fmt.Errorf("%w: target R must be positive, got %f", ErrConfig, cfg.TargetR)
	}
	if cfg.MaxBarsInTrade <= 0 {
		return fmt.Errorf("%w: max bars in trade must be positive, got %d", ErrConfig, cfg.MaxBarsInTrade)
	}
	if cfg.MinBarsBetweenTrades < 0 {
		return fmt.Errorf("%w: cooldown cannot be negative, got %d", ErrConfig, cfg.MinBarsBetweenTrades)
	}
	if cfg.RiskPerTradePct < 0 {
		return fmt.Errorf("%w: risk per trade cannot be negative, got %f", ErrConfig, cfg.RiskPerTradePct)
	}
	if cfg.DailyRiskCapPct < 0 {
		return fmt.Errorf("%w: daily risk cap cannot be negative, got %f", ErrConfig, cfg.DailyRiskCapPct)
	}
	if cfg.DailyRiskCapPct > 0 && cfg.RiskPerTradePct > cfg.DailyRiskCapPct {
		return fmt.Errorf("%w: risk per trade %f exceeds daily cap %f", ErrConfig, cfg.RiskPerTradePct, cfg.DailyRiskCapPct)
	}
	for _, interval := range cfg.HigherIntervalsMin {
		if interval <= cfg.IntervalMin {
			return fmt.Errorf("%w: higher interval %d must exceed execution interval %d", ErrConfig, interval, cfg.IntervalMin)
		}
	}
	return nil
}
