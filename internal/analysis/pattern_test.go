package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampCloses(n int, step float64) []float64 {
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		out[i] = price
		price += step
	}
	return out
}

func TestDetectPattern(t *testing.T) {
	t.Run("too few bars yields nothing", func(t *testing.T) {
		_, ok := DetectPattern(rampCloses(20, 1))
		assert.False(t, ok)
	})

	t.Run("steady uptrend is a breakout", func(t *testing.T) {
		sig, ok := DetectPattern(rampCloses(50, 1))
		require.True(t, ok)
		assert.Equal(t, "breakout", sig.Type)
		assert.Equal(t, 100.0, sig.Score)
	})

	t.Run("steady downtrend yields nothing", func(t *testing.T) {
		_, ok := DetectPattern(rampCloses(50, -1))
		assert.False(t, ok)
	})
}
