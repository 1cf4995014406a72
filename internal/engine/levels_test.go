package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLevels(t *testing.T) {
	t.Run("long levels in a calm regime", func(t *testing.T) {
		levels, ok := ComputeLevels(LevelsInput{Direction: DirectionLong, LastPrice: 100, VolatilityScore: 10})
		require.True(t, ok)

		// risk 0.97%, reward double that
		assert.InDelta(t, 99.03, levels.StopLoss, 1e-6)
		assert.InDelta(t, 101.94, levels.TakeProfit, 1e-6)
		assert.InDelta(t, 99.709, levels.EntryZone.From, 1e-6)
		assert.InDelta(t, 100.291, levels.EntryZone.To, 1e-6)
		assert.Equal(t, 2.0, levels.RiskReward.RRR)
		assert.InDelta(t, 0.97, levels.RiskReward.RiskPercent, 1e-6)
		assert.Equal(t, "low", levels.RiskReward.VolatilityLabel)
	})

	t.Run("short levels mirror around price", func(t *testing.T) {
		levels, ok := ComputeLevels(LevelsInput{Direction: DirectionShort, LastPrice: 100, VolatilityScore: 10})
		require.True(t, ok)
		assert.InDelta(t, 100.97, levels.StopLoss, 1e-6)
		assert.InDelta(t, 98.06, levels.TakeProfit, 1e-6)
	})

	t.Run("high volatility widens risk and relabels", func(t *testing.T) {
		levels, ok := ComputeLevels(LevelsInput{Direction: DirectionLong, LastPrice: 100, VolatilityScore: 100})
		require.True(t, ok)
		assert.InDelta(t, 2.5, levels.RiskReward.RiskPercent, 1e-6)
		assert.Equal(t, "high", levels.RiskReward.VolatilityLabel)
	})

	t.Run("no price means no levels", func(t *testing.T) {
		_, ok := ComputeLevels(LevelsInput{Direction: DirectionLong, LastPrice: 0, VolatilityScore: 50})
		assert.False(t, ok)
	})

	t.Run("no direction means no levels", func(t *testing.T) {
		_, ok := ComputeLevels(LevelsInput{LastPrice: 100, VolatilityScore: 50})
		assert.False(t, ok)
	})
}
