package idhash

import (
	"testing"

	"options-edge-lab/internal/domain"
)

func baseRunParams() domain.RunParams {
	return domain.RunParams{
		StrategyID: "EMA_MACD_TREND",
		Segment:    "NIFTY",
		FromMs:     1700000000000,
		ToMs:       1705000000000,
		Engine: domain.StrategyEngineConfig{
			IntervalMin:          5,
			ATRPeriod:            14,
			StopATRMult:          1.5,
			TargetR:              2.0,
			MaxBarsInTrade:       30,
			MinBarsBetweenTrades: 3,
			RiskPerTradePct:      1.0,
			DailyRiskCapPct:      3.0,
		},
		Robustness: domain.DefaultRobustnessConfig,
	}
}

func TestComputeRunID_Deterministic(t *testing.T) {
	a := ComputeRunID(baseRunParams())
	b := ComputeRunID(baseRunParams())

	if a != b {
		t.Errorf("same params produced different run IDs: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex hash, got %d chars", len(a))
	}
}

func TestComputeRunID_MapInsertionOrderIrrelevant(t *testing.T) {
	a := baseRunParams()
	a.Engine.Params = map[string]float64{"emaFast": 9, "emaSlow": 21}

	b := baseRunParams()
	b.Engine.Params = map[string]float64{"emaSlow": 21, "emaFast": 9}

	if ComputeRunID(a) != ComputeRunID(b) {
		t.Error("identical param maps hashed differently")
	}
}

func TestComputeRunID_ParamSensitivity(t *testing.T) {
	base := ComputeRunID(baseRunParams())

	variants := []struct {
		name   string
		mutate func(*domain.RunParams)
	}{
		{"strategy", func(p *domain.RunParams) { p.StrategyID = "VWAP_REVERSION" }},
		{"segment", func(p *domain.RunParams) { p.Segment = "BANKNIFTY" }},
		{"window start", func(p *domain.RunParams) { p.FromMs++ }},
		{"window end", func(p *domain.RunParams) { p.ToMs++ }},
		{"atr period", func(p *domain.RunParams) { p.Engine.ATRPeriod = 21 }},
		{"stop mult", func(p *domain.RunParams) { p.Engine.StopATRMult = 2.0 }},
		{"tuning knob", func(p *domain.RunParams) { p.Engine.Params = map[string]float64{"emaFast": 12} }},
		{"policy version", func(p *domain.RunParams) { p.Robustness.PolicyVersion = "v2" }},
		{"seed", func(p *domain.RunParams) { p.Robustness.Seed = 43 }},
		{"trials", func(p *domain.RunParams) { p.Robustness.Trials = 500 }},
		{"stress mult", func(p *domain.RunParams) { p.Robustness.SlippageStressMult = 4.0 }},
		{"disabled check", func(p *domain.RunParams) {
			p.Robustness.EnabledChecks = map[string]bool{domain.CheckMonteCarlo: false}
		}},
		{"weights", func(p *domain.RunParams) {
			p.Robustness.Weights = map[string]float64{domain.CheckWalkForward: 1.0}
		}},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			params := baseRunParams()
			tt.mutate(&params)

			if ComputeRunID(params) == base {
				t.Error("changed parameter set collided with base run ID")
			}
		})
	}
}

func TestComputeTradeID_Deterministic(t *testing.T) {
	a := ComputeTradeID("EMA_MACD_TREND", "NIFTY", "LONG", 1700000300000)
	b := ComputeTradeID("EMA_MACD_TREND", "NIFTY", "LONG", 1700000300000)

	if a != b {
		t.Errorf("same params produced different trade IDs")
	}

	c := ComputeTradeID("EMA_MACD_TREND", "NIFTY", "SHORT", 1700000300000)
	if c == a {
		t.Errorf("direction change did not change trade ID")
	}
}
