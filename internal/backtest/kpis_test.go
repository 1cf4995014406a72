package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeKPIs(t *testing.T) {
	t.Run("breakeven trades do not dilute the win rate", func(t *testing.T) {
		trades := []Trade{
			{NetPnl: 10},
			{NetPnl: -5},
			{NetPnl: 0},
		}
		k := ComputeKPIs(trades, []float64{0, 10, 5, 5})

		assert.Equal(t, 3, k.Trades)
		assert.Equal(t, 1, k.Wins)
		assert.Equal(t, 1, k.Losses)
		assert.InDelta(t, 0.5, k.WinRate, 1e-9)
		assert.InDelta(t, 5.0, k.NetPnl, 1e-9)
		assert.InDelta(t, 5.0/3.0, k.AvgPnl, 1e-9)
	})

	t.Run("no trades gives zeroes", func(t *testing.T) {
		k := ComputeKPIs(nil, nil)
		assert.Zero(t, k.Trades)
		assert.Zero(t, k.WinRate)
		assert.Zero(t, k.MaxDrawdown)
	})

	t.Run("all wins", func(t *testing.T) {
		k := ComputeKPIs([]Trade{{NetPnl: 3}, {NetPnl: 7}}, []float64{0, 3, 10})
		assert.InDelta(t, 1.0, k.WinRate, 1e-9)
		assert.Zero(t, k.MaxDrawdown)
	})
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, 15.0, maxDrawdown([]float64{0, 20, 5, 25, 10}), 1e-9)
	assert.Zero(t, maxDrawdown([]float64{0, 1, 2, 3}))
	assert.Zero(t, maxDrawdown(nil))
}
