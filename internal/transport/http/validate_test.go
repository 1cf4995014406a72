package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRunRequest(t *testing.T) {
	t.Run("full request decodes", func(t *testing.T) {
		body := []byte(`{
			"assetId": "GOLD",
			"from": "2026-01-01T00:00:00Z",
			"to": "2026-02-01T00:00:00Z",
			"stepHours": 24,
			"costs": {"feeBps": 2, "slippageBps": 1},
			"exit": {"kind": "hold-n-steps", "holdSteps": 5, "price": "step-open"}
		}`)
		req, err := DecodeRunRequest(body)
		require.NoError(t, err)
		assert.Equal(t, "GOLD", req.AssetID)
		assert.Equal(t, 24.0, req.StepHours)
		require.NotNil(t, req.Exit)
		assert.Equal(t, 5, req.Exit.HoldSteps)
	})

	t.Run("missing assetId is rejected", func(t *testing.T) {
		_, err := DecodeRunRequest([]byte(`{"from":"a","to":"b","stepHours":24}`))
		assert.ErrorContains(t, err, "invalid run request")
	})

	t.Run("zero stepHours is rejected", func(t *testing.T) {
		_, err := DecodeRunRequest([]byte(`{"assetId":"GOLD","from":"a","to":"b","stepHours":0}`))
		assert.Error(t, err)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := DecodeRunRequest([]byte(`{"assetId":"GOLD","from":"a","to":"b","stepHours":24,"leverage":10}`))
		assert.Error(t, err)
	})

	t.Run("unknown exit kind is rejected", func(t *testing.T) {
		_, err := DecodeRunRequest([]byte(`{"assetId":"GOLD","from":"a","to":"b","stepHours":24,"exit":{"kind":"trailing-stop"}}`))
		assert.Error(t, err)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		_, err := DecodeRunRequest([]byte(`{`))
		assert.ErrorContains(t, err, "invalid json")
	})
}
