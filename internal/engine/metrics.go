package engine

import (
	"fmt"
	"math"
	"time"

	"sentra/internal/market"
)

const (
	trendLookback    = 30
	momentumLookback = 15

	dailyMaxAge  = 48 * time.Hour
	hourlyMaxAge = 90 * time.Minute

	swingDriftLimitPct   = 8.0
	defaultDriftLimitPct = 5.0
)

// MetricsInput bundles everything the extractor needs for one asset. Candle
// slices are oldest-first bar-open series per timeframe. ReferencePrice is
// the price recorded when the upstream signal was produced; zero means
// unknown and disables the drift check.
type MetricsInput struct {
	Profile        market.Profile
	Candles        map[market.Timeframe][]market.Candle
	ReferencePrice float64
	PatternScore   *float64
	PatternType    string
	Now            time.Time
}

// ExtractMetrics computes trend, momentum and volatility scores from the
// profile's primary timeframe and evaluates staleness. Swing and position
// horizons read daily and weekly structure only; shorter horizons read
// hourly bars and fall back to daily when no hourly data exists.
func ExtractMetrics(in MetricsInput) MarketMetrics {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	m := MarketMetrics{
		TrendScore:      neutralScore,
		MomentumScore:   neutralScore,
		VolatilityScore: neutralScore,
		PatternScore:    neutralScore,
		PatternType:     in.PatternType,
		EvaluatedAt:     now,
	}
	if in.PatternScore != nil {
		m.PatternScore = clamp(math.Round(*in.PatternScore), 0, 100)
	}

	swing := in.Profile == market.ProfileSwing || in.Profile == market.ProfilePosition

	primary, primaryTF := pickSeries(in.Candles, primaryOrder(swing))
	daily := sanitizeCandles(in.Candles[market.Timeframe1D])

	if len(primary) == 0 {
		m.IsStale = true
		m.Reasons = append(m.Reasons, "no trend data")
		return m
	}

	closes := make([]float64, len(primary))
	for i, c := range primary {
		closes[i] = c.Close
	}
	m.TrendScore = trendScore(closes)
	m.MomentumScore = momentumScore(closes)
	m.VolatilityScore = volatilityScore(closes)
	m.LastPrice = closes[len(closes)-1]
	m.HasPrice = true

	if len(daily) > 0 {
		if age := now.Sub(daily[len(daily)-1].Timestamp); age > dailyMaxAge {
			m.IsStale = true
			m.Reasons = append(m.Reasons, "daily data outdated")
		}
	}
	if !swing && primaryTF == market.Timeframe1H {
		if age := now.Sub(primary[len(primary)-1].Timestamp); age > hourlyMaxAge {
			m.IsStale = true
			m.Reasons = append(m.Reasons, "hourly data outdated")
		}
	}

	if in.ReferencePrice > 0 && m.LastPrice > 0 {
		drift := math.Abs(m.LastPrice-in.ReferencePrice) / in.ReferencePrice * 100
		m.PriceDriftPct = drift
		limit := defaultDriftLimitPct
		if swing {
			limit = swingDriftLimitPct
		}
		if drift > limit {
			m.IsStale = true
			m.Reasons = append(m.Reasons, fmt.Sprintf("price drifted %.1f%%", drift))
		}
	}

	return m
}

func primaryOrder(swing bool) []market.Timeframe {
	if swing {
		return []market.Timeframe{market.Timeframe1D, market.Timeframe1W}
	}
	return []market.Timeframe{market.Timeframe1H, market.Timeframe15m, market.Timeframe4H, market.Timeframe1D}
}

func pickSeries(candles map[market.Timeframe][]market.Candle, order []market.Timeframe) ([]market.Candle, market.Timeframe) {
	for _, tf := range order {
		if series := sanitizeCandles(candles[tf]); len(series) > 0 {
			return series, tf
		}
	}
	return nil, ""
}

// sanitizeCandles drops bars carrying non-finite OHLC fields so a single
// corrupted bar cannot poison the score arithmetic downstream.
func sanitizeCandles(candles []market.Candle) []market.Candle {
	out := candles[:0:0]
	for _, c := range candles {
		if !isFinite(c.Open) || !isFinite(c.High) || !isFinite(c.Low) || !isFinite(c.Close) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// trendScore maps the percent change over up to 30 bars onto the 0..100
// scale, 50 being flat. One percent of price change moves the score one
// point.
func trendScore(closes []float64) float64 {
	if len(closes) < 2 {
		return neutralScore
	}
	last := closes[len(closes)-1]
	refIdx := len(closes) - 1 - trendLookback
	if refIdx < 0 {
		refIdx = 0
	}
	ref := closes[refIdx]
	if ref == 0 {
		return neutralScore
	}
	delta := (last - ref) / ref * 100
	return clamp(neutralScore+delta, 0, 100)
}

// momentumScore reads the shorter 15-bar window at double sensitivity.
func momentumScore(closes []float64) float64 {
	if len(closes) < 2 {
		return neutralScore
	}
	last := closes[len(closes)-1]
	refIdx := len(closes) - 1 - momentumLookback
	if refIdx < 0 {
		refIdx = 0
	}
	ref := closes[refIdx]
	if ref == 0 {
		return neutralScore
	}
	delta := (last - ref) / ref * 100
	return clamp(neutralScore+2*delta, 0, 100)
}

// volatilityScore scales the standard deviation of simple returns. Too few
// bars returns neutral; bars without any valid return pair yield the calm
// floor region.
func volatilityScore(closes []float64) float64 {
	if len(closes) < 10 {
		return neutralScore
	}
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) == 0 {
		return 40
	}
	return clamp(stddev(returns)*1000, 10, 100)
}
