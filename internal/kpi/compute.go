// Package kpi computes aggregate performance statistics over simulated
// trades. Numeric edge cases (no trades, zero variance, zero losers)
// resolve to defined neutral or sentinel values, never to errors.
package kpi

import (
	"math"
	"sort"

	"options-edge-lab/internal/domain"
)

// ProfitFactorNoLosses is the sentinel returned when a trade set has at
// least one winner and no losing trade.
var ProfitFactorNoLosses = math.Inf(1)

// Compute calculates all KPIs from a slice of trades. Trades are sorted
// by EntryTimeMs ASC, TradeID ASC before computing order-dependent
// statistics (max drawdown).
func Compute(trades []domain.SimulatedTrade) domain.StrategyKPIs {
	n := len(trades)
	if n == 0 {
		return domain.StrategyKPIs{}
	}

	sorted := make([]domain.SimulatedTrade, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EntryTimeMs != sorted[j].EntryTimeMs {
			return sorted[i].EntryTimeMs < sorted[j].EntryTimeMs
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	var wins, losses, scratches int
	var netPoints, netR, grossProfit, grossLoss float64
	rs := make([]float64, n)

	for i, t := range sorted {
		rs[i] = t.PnLR
		netPoints += t.PnLPoints
		netR += t.PnLR

		switch t.Outcome {
		case domain.OutcomeWin:
			wins++
		case domain.OutcomeLoss:
			losses++
		default:
			scratches++
		}

		if t.PnLPoints > 0 {
			grossProfit += t.PnLPoints
		} else {
			grossLoss += -t.PnLPoints
		}
	}

	mean := netR / float64(n)

	return domain.StrategyKPIs{
		Trades:    n,
		Wins:      wins,
		Losses:    losses,
		Scratches: scratches,

		WinRate:   float64(wins) / float64(n),
		NetPoints: netPoints,
		NetR:      netR,
		AvgR:      mean,

		ExpectancyR:  mean,
		ProfitFactor: profitFactor(grossProfit, grossLoss, wins),
		MaxDrawdownR: MaxDrawdown(rs),
		SharpeLike:   sharpeLike(rs, mean),
	}
}

// profitFactor applies the documented sentinels: +Inf for a loss-free set
// with at least one winner, 0 for an empty or profit-free loss-free set.
func profitFactor(grossProfit, grossLoss float64, wins int) float64 {
	if grossLoss == 0 {
		if wins > 0 {
			return ProfitFactorNoLosses
		}
		return 0
	}
	return grossProfit / grossLoss
}

// MaxDrawdown calculates worst peak-to-trough on the cumulative series.
// Values must be in chronological order.
func MaxDrawdown(values []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, v := range values {
		cumulative += v
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// sharpeLike is mean(R) / sample stdev(R). Returns the neutral 0 when
// there are fewer than 2 trades or the sample has no variance.
func sharpeLike(rs []float64, mean float64) float64 {
	sd := SampleStddev(rs, mean)
	if sd == 0 {
		return 0
	}
	return mean / sd
}

// SampleStddev calculates sample standard deviation (n-1 denominator).
func SampleStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Mean calculates the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile uses linear interpolation over a pre-sorted ascending slice.
// p is a fraction (0.05 = 5th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
