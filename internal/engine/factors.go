package engine

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"sentra/internal/market"
)

// Quality notes attached to ring meta and validity when an input had to be
// substituted or was absent entirely.
const (
	NoteNoEvents          = "no_events"
	NoteNoBiasSnapshot    = "no_bias_snapshot"
	NoteHashFallback      = "hash_fallback"
	NoteNoIntradayCandles = "no_intraday_candles"
	NoteStaleSignal       = "stale_signal"
	NoteNoMarketData      = "no_market_data"
	NoteMetaAggregate     = "meta_aggregate"
)

const eventHorizon = 72 * time.Hour

// ScoreEvents condenses the upcoming calendar into a single 0..100 event
// pressure score. The nearest high-impact event dominates; pressure decays
// linearly toward the horizon. No upcoming events yields no score at all
// rather than a neutral one.
func ScoreEvents(events []market.Event, asOf time.Time) (*float64, []string) {
	best := 0.0
	found := false
	for _, ev := range events {
		if ev.ScheduledAt.IsZero() {
			continue
		}
		until := ev.ScheduledAt.Sub(asOf)
		if until < 0 || until > eventHorizon {
			continue
		}
		decay := 1 - until.Hours()/eventHorizon.Hours()
		contribution := float64(ev.Impact) / 3 * 100 * decay
		if contribution > best {
			best = contribution
			found = true
		}
	}
	if !found {
		return nil, []string{NoteNoEvents}
	}
	score := clamp(math.Round(best), 0, 100)
	return &score, nil
}

// FallbackSentiment produces a deterministic stand-in sentiment score when
// no live reading is available. Same symbol and same day always hash to the
// same value, which keeps replays and backtests reproducible. The range is
// deliberately narrow around neutral.
func FallbackSentiment(symbol string, asOf time.Time) float64 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s", symbol, asOf.UTC().Format("2006-01-02"))
	return float64(35 + h.Sum32()%31)
}
