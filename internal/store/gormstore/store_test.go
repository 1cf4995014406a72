package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentra/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_LatestSnapshotAsOf(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	first := &engine.PerceptionSnapshot{ID: "snap-1", GeneratedAt: t1, Version: "v0.2"}
	second := &engine.PerceptionSnapshot{ID: "snap-2", GeneratedAt: t2, Version: "v0.2"}
	require.NoError(t, store.SaveSnapshot(ctx, first))
	require.NoError(t, store.SaveSnapshot(ctx, second))

	t.Run("zero asOf serves the newest", func(t *testing.T) {
		got, err := store.LatestSnapshot(ctx, time.Time{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "snap-2", got.ID)
	})

	t.Run("asOf between the two serves the earlier one", func(t *testing.T) {
		got, err := store.LatestSnapshot(ctx, t1.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "snap-1", got.ID)
	})

	t.Run("asOf before everything serves nothing", func(t *testing.T) {
		got, err := store.LatestSnapshot(ctx, t1.Add(-time.Hour))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_BiasReadings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveBiasReading(ctx, "GOLD", t1, 70, 55))
	require.NoError(t, store.SaveBiasReading(ctx, "GOLD", t2, 80, 60))

	t.Run("asOf between readings serves the earlier one", func(t *testing.T) {
		score, baseline, err := store.BiasScores(ctx, "GOLD", t1.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, score)
		require.NotNil(t, baseline)
		assert.InDelta(t, 70.0, *score, 1e-9)
		assert.InDelta(t, 55.0, *baseline, 1e-9)
	})

	t.Run("zero asOf serves the latest", func(t *testing.T) {
		score, _, err := store.BiasScores(ctx, "GOLD", time.Time{})
		require.NoError(t, err)
		require.NotNil(t, score)
		assert.InDelta(t, 80.0, *score, 1e-9)
	})

	t.Run("asOf before the first reading serves nothing", func(t *testing.T) {
		score, baseline, err := store.BiasScores(ctx, "GOLD", t1.Add(-time.Hour))
		require.NoError(t, err)
		assert.Nil(t, score)
		assert.Nil(t, baseline)
	})

	t.Run("unknown asset serves nothing", func(t *testing.T) {
		score, baseline, err := store.BiasScores(ctx, "BTC", time.Time{})
		require.NoError(t, err)
		assert.Nil(t, score)
		assert.Nil(t, baseline)
	})

	t.Run("re-saving the same asOf overwrites the reading", func(t *testing.T) {
		require.NoError(t, store.SaveBiasReading(ctx, "GOLD", t2, 45, 50))
		score, baseline, err := store.BiasScores(ctx, "GOLD", time.Time{})
		require.NoError(t, err)
		require.NotNil(t, score)
		assert.InDelta(t, 45.0, *score, 1e-9)
		assert.InDelta(t, 50.0, *baseline, 1e-9)
	})
}
