package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/logging"
)

var validate = validator.New()

// Config is the application configuration shared by the CLI tools.
type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"oneof=dev staging prod"`

	Logging logging.Config `yaml:"logging"`

	Storage struct {
		// Backend selects where run records and reports live.
		Backend       string `yaml:"backend" default:"memory" validate:"oneof=memory postgres"`
		PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"false"`
		Addr    string `yaml:"addr" default:":9090"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Engine struct {
		IntervalMin          int     `yaml:"interval_min" default:"5" validate:"gt=0"`
		HigherIntervalsMin   []int   `yaml:"higher_intervals_min"`
		ATRPeriod            int     `yaml:"atr_period" default:"14" validate:"gt=0"`
		StopATRMult          float64 `yaml:"stop_atr_mult" default:"1.5" validate:"gt=0"`
		TargetR              float64 `yaml:"target_r" default:"2" validate:"gt=0"`
		MaxBarsInTrade       int     `yaml:"max_bars_in_trade" default:"36" validate:"gt=0"`
		MinBarsBetweenTrades int     `yaml:"min_bars_between_trades" default:"3" validate:"gte=0"`
		RiskPerTradePct      float64 `yaml:"risk_per_trade_pct" default:"1" validate:"gte=0"`
		DailyRiskCapPct      float64 `yaml:"daily_risk_cap_pct" default:"3" validate:"gte=0"`

		Params map[string]float64 `yaml:"params"`
	} `yaml:"engine"`

	Robustness struct {
		PolicyVersion      string             `yaml:"policy_version" default:"v1"`
		Seed               int64              `yaml:"seed" default:"1"`
		Trials             int                `yaml:"trials" default:"1000" validate:"gt=0"`
		WalkForwardWindows int                `yaml:"walk_forward_windows" default:"4" validate:"gte=2"`
		TailPercentile     float64            `yaml:"tail_percentile" default:"0.05" validate:"gt=0,lt=1"`
		SlippageStressMult float64            `yaml:"slippage_stress_mult" default:"2.5" validate:"gte=1"`
		BrokerageFeePts    float64            `yaml:"brokerage_fee_pts" default:"2" validate:"gte=0"`
		RegimeVolWindow    int                `yaml:"regime_vol_window" default:"20" validate:"gt=1"`
		EnabledChecks      []string           `yaml:"enabled_checks" validate:"dive,oneof=walk_forward monte_carlo slippage_stress brokerage_stress regime_stability"`
		Weights            map[string]float64 `yaml:"weights"`
	} `yaml:"robustness"`
}

// Load reads, defaults, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a Config from raw YAML bytes.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Fill zero-valued fields before validating.
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	c, err := Parse([]byte("{}"))
	if err != nil {
		panic(err) // defaults are static; failure is a programming error
	}
	return c
}

// EngineConfig converts the engine section to the domain type.
func (c *Config) EngineConfig() domain.StrategyEngineConfig {
	return domain.StrategyEngineConfig{
		IntervalMin:          c.Engine.IntervalMin,
		HigherIntervalsMin:   c.Engine.HigherIntervalsMin,
		ATRPeriod:            c.Engine.ATRPeriod,
		StopATRMult:          c.Engine.StopATRMult,
		TargetR:              c.Engine.TargetR,
		MaxBarsInTrade:       c.Engine.MaxBarsInTrade,
		MinBarsBetweenTrades: c.Engine.MinBarsBetweenTrades,
		RiskPerTradePct:      c.Engine.RiskPerTradePct,
		DailyRiskCapPct:      c.Engine.DailyRiskCapPct,
		Params:               c.Engine.Params,
	}
}

// RobustnessConfig converts the robustness section to the domain type.
// An empty enabled_checks list means the full default set.
func (c *Config) RobustnessConfig() domain.RobustnessConfig {
	out := domain.RobustnessConfig{
		PolicyVersion:      c.Robustness.PolicyVersion,
		Seed:               c.Robustness.Seed,
		Trials:             c.Robustness.Trials,
		WalkForwardWindows: c.Robustness.WalkForwardWindows,
		TailPercentile:     c.Robustness.TailPercentile,
		SlippageStressMult: c.Robustness.SlippageStressMult,
		BrokerageFeePts:    c.Robustness.BrokerageFeePts,
		RegimeVolWindow:    c.Robustness.RegimeVolWindow,
		Weights:            c.Robustness.Weights,
	}
	if len(c.Robustness.EnabledChecks) > 0 {
		out.EnabledChecks = make(map[string]bool, len(c.Robustness.EnabledChecks))
		for _, name := range c.Robustness.EnabledChecks {
			out.EnabledChecks[name] = true
		}
	}
	if out.Weights == nil {
		out.Weights = domain.DefaultRobustnessConfig.Weights
	}
	return out
}
