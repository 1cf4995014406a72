package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"sentra/internal/market"
)

// BuildEventModifier classifies upcoming macro events for one asset into an
// execution modifier. windowHours bounds how far ahead an event can still be
// execution critical; events past the window only raise awareness.
func BuildEventModifier(events []market.Event, asOf time.Time, windowHours float64) EventModifier {
	if len(events) == 0 {
		return EventModifier{Classification: EventNone, UsedFallback: false}
	}
	if windowHours <= 0 {
		windowHours = 24
	}

	sorted := make([]market.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Impact != sorted[j].Impact {
			return sorted[i].Impact > sorted[j].Impact
		}
		return sorted[i].ScheduledAt.Before(sorted[j].ScheduledAt)
	})

	top := sorted[0]
	primary := PrimaryEvent{
		Title:    top.Title,
		Impact:   top.Impact,
		Source:   top.Source,
		Country:  top.Country,
		Currency: top.Currency,
		Category: top.Category,
	}
	var missing []string
	if top.ScheduledAt.IsZero() {
		missing = append(missing, "scheduledAt")
	} else {
		primary.ScheduledAt = top.ScheduledAt.UTC().Format(time.RFC3339)
		primary.HasTiming = true
		primary.MinutesToEvent = math.Round(top.ScheduledAt.Sub(asOf).Minutes())
	}

	mod := EventModifier{
		Classification: EventAwarenessOnly,
		PrimaryEvent:   &primary,
		MissingFields:  missing,
		UsedFallback:   len(missing) > 0,
	}

	windowMinutes := windowHours * 60
	if top.Impact >= 3 && primary.HasTiming &&
		primary.MinutesToEvent >= 0 && primary.MinutesToEvent <= windowMinutes {
		mod.Classification = EventExecutionCritical
		mod.Rationale = append(mod.Rationale,
			fmt.Sprintf("High impact in %dm", int(primary.MinutesToEvent)))
		mod.ExecutionAdjustments = append(mod.ExecutionAdjustments, "delay_entry", "reduce_size")
		return mod
	}

	if top.Impact == 2 && primary.HasTiming &&
		primary.MinutesToEvent >= 0 && primary.MinutesToEvent <= windowMinutes {
		mod.Classification = EventContextRelevant
	}
	mod.Rationale = append(mod.Rationale, fmt.Sprintf("Upcoming: %s", top.Title))
	mod.ExecutionAdjustments = append(mod.ExecutionAdjustments, "monitor_volatility")
	return mod
}
