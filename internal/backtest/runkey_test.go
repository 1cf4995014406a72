package backtest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRunKey(t *testing.T) {
	costs := CostsConfig{FeeBps: 2, SlippageBps: 1}
	exit := DefaultExitPolicy()

	key, err := ComputeRunKey("GOLD", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", 24, costs, exit)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	t.Run("identical inputs give identical keys", func(t *testing.T) {
		again, err := ComputeRunKey("GOLD", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", 24, costs, exit)
		require.NoError(t, err)
		assert.Equal(t, key, again)
	})

	t.Run("step hours change the key", func(t *testing.T) {
		other, err := ComputeRunKey("GOLD", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", 4, costs, exit)
		require.NoError(t, err)
		assert.NotEqual(t, key, other)
	})

	t.Run("costs change the key", func(t *testing.T) {
		other, err := ComputeRunKey("GOLD", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", 24,
			CostsConfig{FeeBps: 5, SlippageBps: 1}, exit)
		require.NoError(t, err)
		assert.NotEqual(t, key, other)
	})

	t.Run("exit policy changes the key", func(t *testing.T) {
		custom := exit
		custom.HoldSteps = 5
		other, err := ComputeRunKey("GOLD", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", 24, costs, custom)
		require.NoError(t, err)
		assert.NotEqual(t, key, other)
	})

	t.Run("key is independent of field order", func(t *testing.T) {
		// a payload built in scrambled order hashes identically because
		// the canonical form always serializes keys sorted
		payload := map[string]any{
			"toIso":     "2026-02-01T00:00:00Z",
			"stepHours": 24,
			"assetId":   "GOLD",
			"exitPolicy": map[string]any{
				"price":     "step-open",
				"kind":      "hold-n-steps",
				"holdSteps": 3,
			},
			"fromIso": "2026-01-01T00:00:00Z",
			"costsConfig": map[string]any{
				"slippageBps": 1,
				"feeBps":      2,
			},
		}
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		sum := sha256.Sum256(raw)
		assert.Equal(t, hex.EncodeToString(sum[:]), key)
	})

	t.Run("asset changes the key", func(t *testing.T) {
		other, err := ComputeRunKey("BTC", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", 24, costs, exit)
		require.NoError(t, err)
		assert.NotEqual(t, key, other)
	})
}
