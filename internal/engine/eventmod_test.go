package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentra/internal/market"
)

func TestBuildEventModifier(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	t.Run("no events is none", func(t *testing.T) {
		mod := BuildEventModifier(nil, asOf, 24)
		assert.Equal(t, EventNone, mod.Classification)
		assert.Nil(t, mod.PrimaryEvent)
	})

	t.Run("high impact inside window is execution critical", func(t *testing.T) {
		events := []market.Event{
			{Title: "FOMC Rate Decision", Impact: 3, ScheduledAt: asOf.Add(90 * time.Minute)},
			{Title: "Retail Sales", Impact: 1, ScheduledAt: asOf.Add(30 * time.Minute)},
		}
		mod := BuildEventModifier(events, asOf, 24)
		assert.Equal(t, EventExecutionCritical, mod.Classification)
		require.NotNil(t, mod.PrimaryEvent)
		assert.Equal(t, "FOMC Rate Decision", mod.PrimaryEvent.Title)
		assert.Equal(t, 90.0, mod.PrimaryEvent.MinutesToEvent)
		assert.Contains(t, mod.Rationale[0], "High impact in 90m")
		assert.Contains(t, mod.ExecutionAdjustments, "delay_entry")
		assert.Contains(t, mod.ExecutionAdjustments, "reduce_size")
	})

	t.Run("high impact past window is awareness only", func(t *testing.T) {
		events := []market.Event{
			{Title: "NFP", Impact: 3, ScheduledAt: asOf.Add(40 * time.Hour)},
		}
		mod := BuildEventModifier(events, asOf, 24)
		assert.Equal(t, EventAwarenessOnly, mod.Classification)
		assert.Contains(t, mod.Rationale[0], "Upcoming: NFP")
		assert.Contains(t, mod.ExecutionAdjustments, "monitor_volatility")
	})

	t.Run("medium impact inside window is context relevant", func(t *testing.T) {
		events := []market.Event{
			{Title: "PMI Flash", Impact: 2, ScheduledAt: asOf.Add(2 * time.Hour)},
		}
		mod := BuildEventModifier(events, asOf, 24)
		assert.Equal(t, EventContextRelevant, mod.Classification)
		assert.Contains(t, mod.ExecutionAdjustments, "monitor_volatility")
	})

	t.Run("low impact inside window is awareness only", func(t *testing.T) {
		events := []market.Event{
			{Title: "API Crude Stocks", Impact: 1, ScheduledAt: asOf.Add(2 * time.Hour)},
		}
		mod := BuildEventModifier(events, asOf, 24)
		assert.Equal(t, EventAwarenessOnly, mod.Classification)
	})

	t.Run("event already past is not critical", func(t *testing.T) {
		events := []market.Event{
			{Title: "CPI", Impact: 3, ScheduledAt: asOf.Add(-2 * time.Hour)},
		}
		mod := BuildEventModifier(events, asOf, 24)
		assert.Equal(t, EventAwarenessOnly, mod.Classification)
	})

	t.Run("missing schedule is flagged as fallback", func(t *testing.T) {
		events := []market.Event{{Title: "Mystery Speech", Impact: 3}}
		mod := BuildEventModifier(events, asOf, 24)
		assert.Equal(t, EventAwarenessOnly, mod.Classification)
		assert.True(t, mod.UsedFallback)
		assert.Contains(t, mod.MissingFields, "scheduledAt")
	})
}
