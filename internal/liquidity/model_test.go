package liquidity

import "testing"

func f(v float64) *float64 { return &v }

func TestEstimateFor_Bands(t *testing.T) {
	tests := []struct {
		name    string
		premium float64
		volume  *float64
	}{
		{"negative premium clamped", -50, f(1000)},
		{"zero premium clamped", 0, f(1000)},
		{"cheap premium", 5, f(1000)},
		{"mid premium", 80, f(1000)},
		{"expensive premium", 400, f(1000)},
		{"volume absent", 80, nil},
		{"volume zero", 80, f(0)},
		{"volume negative", 80, f(-10)},
		{"thin volume", 80, f(50)},
		{"deep volume", 80, f(1e7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := EstimateFor(tt.premium, tt.volume)

			if est.SpreadPct < spreadFloor || est.SpreadPct > spreadCeil {
				t.Errorf("spread %f outside [%f, %f]", est.SpreadPct, spreadFloor, spreadCeil)
			}
			if est.SlippagePenaltyPct < slippageFloor || est.SlippagePenaltyPct > slippageCeil {
				t.Errorf("slippage %f outside [%f, %f]", est.SlippagePenaltyPct, slippageFloor, slippageCeil)
			}
			if est.SlippagePenaltyPct > est.SpreadPct {
				t.Errorf("slippage %f exceeds spread %f", est.SlippagePenaltyPct, est.SpreadPct)
			}
		})
	}
}

func TestEstimateFor_ThinnerVolumeWidensSpread(t *testing.T) {
	thin := EstimateFor(80, f(400))
	deep := EstimateFor(80, f(100000))

	if thin.SpreadPct < deep.SpreadPct {
		t.Errorf("thin volume spread %f narrower than deep volume spread %f", thin.SpreadPct, deep.SpreadPct)
	}
}

func TestEstimateFor_CheapPremiumWiderThanExpensive(t *testing.T) {
	cheap := EstimateFor(5, f(1000))
	rich := EstimateFor(400, f(1000))

	if cheap.SpreadPct <= rich.SpreadPct {
		t.Errorf("cheap premium spread %f not wider than expensive %f", cheap.SpreadPct, rich.SpreadPct)
	}
}

func TestEstimateFor_Deterministic(t *testing.T) {
	a := EstimateFor(37.5, f(12345))
	b := EstimateFor(37.5, f(12345))

	if a != b {
		t.Errorf("identical inputs produced different estimates: %+v vs %+v", a, b)
	}
}
