package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestComputeRingsFromSource_EmptySourceIsNeutral(t *testing.T) {
	rings := ComputeRingsFromSource(RingSource{})
	assert.Equal(t, 50.0, rings.Trend)
	assert.Equal(t, 50.0, rings.Event)
	assert.Equal(t, 50.0, rings.Bias)
	assert.Equal(t, 50.0, rings.Sentiment)
	assert.Equal(t, 50.0, rings.Orderflow)
	assert.Equal(t, 50.0, rings.Confidence)
}

func TestComputeRingsFromSource_EventRing(t *testing.T) {
	t.Run("volatile flat regime", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{
			Breakdown: &Breakdown{Volatility: f(80), Trend: f(50), Momentum: f(50)},
		})
		// vol component 80, regime 0, pattern 50, macro 50 -> 46.5 rounds up
		assert.Equal(t, 47.0, rings.Event)
	})

	t.Run("diverging trend and momentum", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{
			Breakdown: &Breakdown{Volatility: f(60), Trend: f(90), Momentum: f(85)},
		})
		assert.Equal(t, 40.0, rings.Event)
	})

	t.Run("event score with pattern, no breakdown", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{
			EventScore:  f(90),
			PatternType: "pullback",
		})
		assert.Equal(t, 78.0, rings.Event)
	})

	t.Run("unknown pattern falls back to neutral component", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{
			EventScore:  f(90),
			PatternType: "mystery wedge",
		})
		// 0.6*90 + 0.4*50
		assert.Equal(t, 74.0, rings.Event)
	})
}

func TestComputeRingsFromSource_BiasRing(t *testing.T) {
	t.Run("at-time and baseline blend 70/30", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{BiasScoreAtTime: f(80), BiasScore: f(60)})
		assert.Equal(t, 74.0, rings.Bias)
	})

	t.Run("single input passes through", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{BiasScore: f(61.4)})
		assert.Equal(t, 61.0, rings.Bias)
	})

	t.Run("nan input is ignored", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{BiasScoreAtTime: f(math.NaN()), BiasScore: f(60)})
		assert.Equal(t, 60.0, rings.Bias)
	})
}

func TestComputeRingsFromSource_OrderflowRing(t *testing.T) {
	t.Run("breakdown with direction and mode", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{
			Breakdown:     &Breakdown{Momentum: f(80), Volatility: f(50), Trend: f(50)},
			Direction:     DirectionLong,
			OrderflowMode: "trending",
		})
		// energy (2*80+50)/3 = 70, base 62, +5 tilt +5 mode
		assert.Equal(t, 72.0, rings.Orderflow)
	})

	t.Run("balance score only", func(t *testing.T) {
		rings := ComputeRingsFromSource(RingSource{BalanceScore: f(80)})
		assert.Equal(t, 62.0, rings.Orderflow)
	})
}

func TestComputeRingsFromSource_ScoresAreClamped(t *testing.T) {
	rings := ComputeRingsFromSource(RingSource{
		Breakdown:  &Breakdown{Volatility: f(500), Trend: f(-20), Momentum: f(200)},
		EventScore: f(1000),
		TrendScore: f(-50),
	})
	for _, v := range []float64{rings.Trend, rings.Event, rings.Bias, rings.Sentiment, rings.Orderflow, rings.Confidence} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 50.0, clampPercent(nil))
	assert.Equal(t, 50.0, clampPercent(f(math.NaN())))
	assert.Equal(t, 0.0, clampPercent(f(-12)))
	assert.Equal(t, 100.0, clampPercent(f(140)))
	assert.Equal(t, 73.0, clampPercent(f(72.5)))
}
