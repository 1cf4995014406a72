package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFundingOiScore(t *testing.T) {
	t.Run("flat readings are neutral", func(t *testing.T) {
		assert.InDelta(t, 50.0, fundingOiScore(0, 0), 1e-9)
	})

	t.Run("positive funding lifts the score", func(t *testing.T) {
		assert.InDelta(t, 55.0, fundingOiScore(0.0001, 0), 1e-9)
	})

	t.Run("funding saturates at its band", func(t *testing.T) {
		assert.InDelta(t, 70.0, fundingOiScore(0.001, 0), 1e-9)
		assert.InDelta(t, 70.0, fundingOiScore(0.5, 0), 1e-9)
	})

	t.Run("open interest growth adds on top", func(t *testing.T) {
		assert.InDelta(t, 65.0, fundingOiScore(0, 10), 1e-9)
	})

	t.Run("open interest saturates at its band", func(t *testing.T) {
		assert.InDelta(t, 65.0, fundingOiScore(0, 200), 1e-9)
	})

	t.Run("negative legs stack down", func(t *testing.T) {
		assert.InDelta(t, 15.0, fundingOiScore(-0.0004, -20), 1e-9)
	})

	t.Run("combined extremes stay inside the scale", func(t *testing.T) {
		assert.InDelta(t, 85.0, fundingOiScore(1, 1000), 1e-9)
		assert.InDelta(t, 15.0, fundingOiScore(-1, -1000), 1e-9)
	})
}
