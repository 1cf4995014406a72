package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sentra/internal/market"
)

func dailySeries(start time.Time, closes ...float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c, High: c, Low: c, Close: c, Volume: 1000,
		}
	}
	return out
}

func TestExtractMetrics_TrendAndMomentum(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bars := dailySeries(now.Add(-4*24*time.Hour), 100, 105, 110, 115, 120)

	m := ExtractMetrics(MetricsInput{
		Profile: market.ProfileSwing,
		Candles: map[market.Timeframe][]market.Candle{market.Timeframe1D: bars},
		Now:     now,
	})
	// +20% over the window: one point per percent for trend, two for momentum
	assert.Equal(t, 70.0, m.TrendScore)
	assert.Equal(t, 90.0, m.MomentumScore)
	assert.True(t, m.HasPrice)
	assert.Equal(t, 120.0, m.LastPrice)
	assert.False(t, m.IsStale)
}

func TestExtractMetrics_NoData(t *testing.T) {
	m := ExtractMetrics(MetricsInput{Profile: market.ProfileSwing})
	assert.True(t, m.IsStale)
	assert.Contains(t, m.Reasons, "no trend data")
	assert.False(t, m.HasPrice)
	assert.Equal(t, 50.0, m.TrendScore)
}

func TestExtractMetrics_NonFiniteBarsAreDropped(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bars := dailySeries(now.Add(-2*24*time.Hour), 100, 110, 121)
	bars[1].Close = math.NaN()

	m := ExtractMetrics(MetricsInput{
		Profile: market.ProfileSwing,
		Candles: map[market.Timeframe][]market.Candle{market.Timeframe1D: bars},
		Now:     now,
	})
	assert.True(t, m.HasPrice)
	assert.Equal(t, 121.0, m.LastPrice)
	// the poisoned bar does not break the score
	assert.False(t, math.IsNaN(m.TrendScore))
}

func TestExtractMetrics_Staleness(t *testing.T) {
	now := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	t.Run("outdated daily data", func(t *testing.T) {
		bars := dailySeries(now.Add(-8*24*time.Hour), 100, 101, 102, 103)
		m := ExtractMetrics(MetricsInput{
			Profile: market.ProfileSwing,
			Candles: map[market.Timeframe][]market.Candle{market.Timeframe1D: bars},
			Now:     now,
		})
		assert.True(t, m.IsStale)
		assert.Contains(t, m.Reasons, "daily data outdated")
	})

	t.Run("price drift beyond swing limit", func(t *testing.T) {
		bars := dailySeries(now.Add(-24*time.Hour), 100, 110)
		m := ExtractMetrics(MetricsInput{
			Profile:        market.ProfileSwing,
			Candles:        map[market.Timeframe][]market.Candle{market.Timeframe1D: bars},
			ReferencePrice: 100,
			Now:            now,
		})
		assert.True(t, m.IsStale)
		assert.InDelta(t, 10.0, m.PriceDriftPct, 0.001)
	})

	t.Run("drift inside swing limit is fine", func(t *testing.T) {
		bars := dailySeries(now.Add(-24*time.Hour), 100, 105)
		m := ExtractMetrics(MetricsInput{
			Profile:        market.ProfileSwing,
			Candles:        map[market.Timeframe][]market.Candle{market.Timeframe1D: bars},
			ReferencePrice: 100,
			Now:            now,
		})
		assert.False(t, m.IsStale)
	})
}

func TestVolatilityScore(t *testing.T) {
	t.Run("too few bars is neutral", func(t *testing.T) {
		assert.Equal(t, 50.0, volatilityScore([]float64{1, 2, 3}))
	})

	t.Run("flat series hits the calm floor", func(t *testing.T) {
		flat := make([]float64, 20)
		for i := range flat {
			flat[i] = 100
		}
		assert.Equal(t, 10.0, volatilityScore(flat))
	})

	t.Run("wild series caps at 100", func(t *testing.T) {
		wild := []float64{100, 150, 80, 160, 70, 180, 60, 200, 50, 220, 40}
		assert.Equal(t, 100.0, volatilityScore(wild))
	})
}
