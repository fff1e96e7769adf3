package strategy

import (
	"errors"
	"testing"

	"options-edge-lab/internal/domain"
)

func validConfig() domain.StrategyEngineConfig {
	return domain.StrategyEngineConfig{
		IntervalMin:          5,
		ATRPeriod:            14,
		StopATRMult:          1.5,
		TargetR:              2.0,
		MaxBarsInTrade:       30,
		MinBarsBetweenTrades: 3,
		RiskPerTradePct:      1.0,
		DailyRiskCapPct:      3.0,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.StrategyEngineConfig)
		wantErr bool
	}{
		{"valid", func(c *domain.StrategyEngineConfig) {}, false},
		{"zero interval", func(c *domain.StrategyEngineConfig) { c.IntervalMin = 0 }, true},
		{"zero ATR period", func(c *domain.StrategyEngineConfig) { c.ATRPeriod = 0 }, true},
		{"negative ATR period", func(c *domain.StrategyEngineConfig) { c.ATRPeriod = -5 }, true},
		{"zero stop mult", func(c *domain.StrategyEngineConfig) { c.StopATRMult = 0 }, true},
		{"zero target R", func(c *domain.StrategyEngineConfig) { c.TargetR = 0 }, true},
		{"zero max bars", func(c *domain.StrategyEngineConfig) { c.MaxBarsInTrade = 0 }, true},
		{"negative cooldown", func(c *domain.StrategyEngineConfig) { c.MinBarsBetweenTrades = -1 }, true},
		{"risk above daily cap", func(c *domain.StrategyEngineConfig) { c.RiskPerTradePct = 5 }, true},
		{"higher interval below execution", func(c *domain.StrategyEngineConfig) { c.HigherIntervalsMin = []int{1} }, true},
		{"higher interval valid", func(c *domain.StrategyEngineConfig) { c.HigherIntervalsMin = []int{15, 60} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr && !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFromID_ResolvesBuiltins(t *testing.T) {
	for _, id := range []string{
		StrategyEMAMACDTrend,
		StrategySupertrendADX,
		StrategyVWAPReversion,
		StrategyGammaBreakout,
		StrategyPCROIReversal,
	} {
		rule, err := FromID(id)
		if err != nil {
			t.Errorf("FromID(%q): %v", id, err)
			continue
		}
		if rule.ID() != id {
			t.Errorf("rule ID %q does not match registry key %q", rule.ID(), id)
		}
	}
}

func TestFromID_Unknown(t *testing.T) {
	_, err := FromID("MARTINGALE_9000")

	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestEMAMACDTrend_RejectsInvertedPeriods(t *testing.T) {
	cfg := validConfig()
	cfg.Params = map[string]float64{"emaFast": 30, "emaSlow": 10}
	env := NewEnv(cfg, flatCandles(50), nil)

	rule := &EMAMACDTrend{}
	if err := rule.Prepare(env); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for emaFast >= emaSlow, got %v", err)
	}
}

func TestGammaBreakout_MissingSnapshotFields(t *testing.T) {
	cfg := validConfig()
	env := NewEnv(cfg, flatCandles(60), []domain.MarketSnapshot{
		{TimestampMs: 0}, // all analytics absent: valid state, no signal
	})

	rule := &GammaBreakout{}
	if err := rule.Prepare(env); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	for i := range env.Candles {
		if v := rule.Evaluate(i, env); v != nil {
			t.Fatalf("signal produced from empty snapshot at bar %d: %+v", i, v)
		}
	}
}

func TestGammaBreakout_FiresOnBreakoutAwayFromMaxPain(t *testing.T) {
	cfg := validConfig()
	candles := flatCandles(60)
	// Clean breakout bar: close above every prior high, volume spike.
	candles[40].Open = 102
	candles[40].High = 111
	candles[40].Close = 110
	candles[40].Volume = 10_000

	maxPain, ltp := 100.0, 110.0 // 10% deviation, well clear of the pin
	env := NewEnv(cfg, candles, []domain.MarketSnapshot{
		{TimestampMs: 0, MaxPain: &maxPain, LTP: &ltp},
	})

	rule := &GammaBreakout{}
	if err := rule.Prepare(env); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	v := rule.Evaluate(40, env)
	if v == nil {
		t.Fatal("expected long verdict on breakout bar with stretched max-pain deviation")
	}
	if v.Direction != domain.DirectionLong {
		t.Errorf("expected LONG, got %s", v.Direction)
	}
	if v.Confidence <= 0 || v.Confidence > 100 {
		t.Errorf("confidence %f outside 0..100", v.Confidence)
	}

	// Same setup without the volume spike stays flat.
	candles[40].Volume = 1000
	quiet := NewEnv(cfg, candles, []domain.MarketSnapshot{
		{TimestampMs: 0, MaxPain: &maxPain, LTP: &ltp},
	})
	if err := rule.Prepare(quiet); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if v := rule.Evaluate(40, quiet); v != nil {
		t.Errorf("signal produced without a volume spike: %+v", v)
	}
}

func TestPCROIReversal_FiresOnCrowdedPuts(t *testing.T) {
	cfg := validConfig()
	candles := flatCandles(10)
	// Bullish bar at index 5.
	candles[5].Open = 99
	candles[5].Close = 101

	pcr := 1.6
	env := NewEnv(cfg, candles, []domain.MarketSnapshot{
		{TimestampMs: 0, PCR: &pcr},
	})

	rule := &PCROIReversal{}
	if err := rule.Prepare(env); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	v := rule.Evaluate(5, env)
	if v == nil {
		t.Fatal("expected long verdict on elevated PCR with bullish bar")
	}
	if v.Direction != domain.DirectionLong {
		t.Errorf("expected LONG, got %s", v.Direction)
	}
	if v.Confidence <= 0 || v.Confidence > 100 {
		t.Errorf("confidence %f outside 0..100", v.Confidence)
	}
}

func TestEnv_SnapshotAt(t *testing.T) {
	snaps := []domain.MarketSnapshot{
		{TimestampMs: 100},
		{TimestampMs: 200},
		{TimestampMs: 300},
	}
	env := NewEnv(validConfig(), flatCandles(5), snaps)

	if got := env.SnapshotAt(50); got != nil {
		t.Errorf("expected nil before first snapshot, got %+v", got)
	}
	if got := env.SnapshotAt(250); got == nil || got.TimestampMs != 200 {
		t.Errorf("expected snapshot at 200, got %+v", got)
	}
	if got := env.SnapshotAt(900); got == nil || got.TimestampMs != 300 {
		t.Errorf("expected last snapshot, got %+v", got)
	}
}

func flatCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			TimestampMs: int64(i) * 300_000,
			Open:        100, High: 101, Low: 99, Close: 100,
			Volume: 1000,
		}
	}
	return out
}
