package perception

import (
	"context"
	"time"

	"sentra/internal/engine"
	"sentra/internal/market"
)

// WriteResult reports what a repository write actually did. Backends that
// cannot count affected rows leave the counters nil and explain themselves
// in Note instead of reporting a fabricated zero.
type WriteResult struct {
	Inserted *int64 `json:"inserted"`
	Updated  *int64 `json:"updated"`
	Upserted *int64 `json:"upserted"`
	Note     string `json:"note,omitempty"`
}

// CandleRepository is the persistent store of normalized OHLCV bars.
// LatestCandles serves the most recent limit bars, returned oldest first
// like every other series in the system.
type CandleRepository interface {
	Candles(ctx context.Context, assetID string, tf market.Timeframe, from, to time.Time) ([]market.Candle, error)
	LatestCandles(ctx context.Context, assetID string, tf market.Timeframe, limit int) ([]market.Candle, error)
	WriteCandles(ctx context.Context, assetID string, tf market.Timeframe, candles []market.Candle) (WriteResult, error)
}

// EventRepository stores and serves macro-calendar events.
type EventRepository interface {
	UpcomingEvents(ctx context.Context, assetID string, from, to time.Time) ([]market.Event, error)
	WriteEvents(ctx context.Context, events []market.Event) (WriteResult, error)
}

// MarketDataProvider fetches fresh bars from an exchange or data vendor.
type MarketDataProvider interface {
	FetchCandles(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]market.Candle, error)
}

// SentimentProvider reads a live sentiment score for one symbol. A nil
// score with nil error means the provider has no current reading; the
// pipeline then falls back to its deterministic substitute.
type SentimentProvider interface {
	SentimentScore(ctx context.Context, symbol string) (*float64, error)
}

// BiasProvider serves the directional bias scores recorded for an asset:
// the reading closest to asOf plus the standing baseline. Either may be nil.
type BiasProvider interface {
	BiasScores(ctx context.Context, assetID string, asOf time.Time) (atTime, baseline *float64, err error)
}

// SnapshotStore persists finished snapshots. LatestSnapshot returns the
// newest snapshot generated at or before asOf; a zero asOf means no bound.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *engine.PerceptionSnapshot) error
	LatestSnapshot(ctx context.Context, asOf time.Time) (*engine.PerceptionSnapshot, error)
	SnapshotByID(ctx context.Context, id string) (*engine.PerceptionSnapshot, error)
}
