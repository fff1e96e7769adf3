package robustness

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/kpi"
)

// monteCarlo bootstraps the realized trade sequence (with replacement)
// to build distributions of terminal net-R and max drawdown, penalizing
// dispersion and tail drawdown. Trials run in parallel for throughput
// only: every trial derives its RNG from (seed, trial index) and writes
// into its own slot, so the score is identical for any scheduling.
func (s *Suite) monteCarlo(baseline *engine.Result) (float64, string, error) {
	rs := make([]float64, len(baseline.Trades))
	for i, t := range baseline.Trades {
		rs[i] = t.PnLR
	}
	if len(rs) < 2 {
		return 50, "fewer than 2 trades; dispersion unmeasurable, neutral score", nil
	}

	trials := s.cfg.Trials
	netRs := make([]float64, trials)
	drawdowns := make([]float64, trials)

	workers := runtime.GOMAXPROCS(0)
	chunk := (trials + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > trials {
			hi = trials
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			resampled := make([]float64, len(rs))
			for trial := lo; trial < hi; trial++ {
				rng := rand.New(rand.NewSource(s.cfg.Seed*1_000_003 + int64(trial)))
				for i := range resampled {
					resampled[i] = rs[rng.Intn(len(rs))]
				}

				net := 0.0
				for _, r := range resampled {
					net += r
				}
				netRs[trial] = net
				drawdowns[trial] = kpi.MaxDrawdown(resampled)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, "", err
	}

	meanNet := kpi.Mean(netRs)
	dispersion := kpi.SampleStddev(netRs, meanNet) / (math.Abs(meanNet) + 1)

	sort.Float64s(drawdowns)
	// TailPercentile names the bad tail of the outcome distribution;
	// on the (positive) drawdown scale that is the complementary quantile.
	tailDD := kpi.Percentile(drawdowns, 1-s.cfg.TailPercentile)
	tailPenalty := tailDD / (math.Abs(baseline.KPIs.NetR) + 1)

	score := 100 - math.Min(50, dispersion*25) - math.Min(50, tailPenalty*25)
	detail := fmt.Sprintf("trials=%d meanNetR=%.2f dispersion=%.3f tailDD=%.2fR", trials, meanNet, dispersion, tailDD)
	return score, detail, nil
}
