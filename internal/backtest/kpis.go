package backtest

import "math"

// ComputeKPIs aggregates closed trades into the run's headline numbers.
// The win rate is computed over decided trades only; a trade with exactly
// zero net result counts as neither win nor loss.
func ComputeKPIs(trades []Trade, equity []float64) KPIs {
	k := KPIs{Trades: len(trades)}
	for _, t := range trades {
		k.NetPnl += t.NetPnl
		switch {
		case t.NetPnl > 0:
			k.Wins++
		case t.NetPnl < 0:
			k.Losses++
		}
	}
	if decided := k.Wins + k.Losses; decided > 0 {
		k.WinRate = float64(k.Wins) / float64(decided)
	}
	if len(trades) > 0 {
		k.AvgPnl = k.NetPnl / float64(len(trades))
	}
	k.MaxDrawdown = maxDrawdown(equity)
	return k
}

// maxDrawdown is the largest peak-to-trough decline along the curve,
// reported as a positive number.
func maxDrawdown(equity []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > worst {
			worst = dd
		}
	}
	return worst
}
