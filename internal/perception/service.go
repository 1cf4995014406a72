package perception

import (
	"context"
	"fmt"
	"time"

	"sentra/internal/engine"
	"sentra/internal/logger"
	"sentra/internal/market"
)

// UniverseEntry is one asset the engine watches, with the horizon and any
// standing directional view configured for it.
type UniverseEntry struct {
	Asset     market.Asset
	Profile   market.Profile
	Direction engine.Direction
}

// Service orchestrates data loading, snapshot building and persistence.
// All collaborators are injected; any of marketData, sentiment or bias may
// be nil, in which case the pipeline degrades to its fallbacks.
type Service struct {
	builder    *engine.SnapshotBuilder
	candles    CandleRepository
	events     EventRepository
	marketData MarketDataProvider
	sentiment  SentimentProvider
	bias       BiasProvider
	store      SnapshotStore
	cache      *SnapshotCache
	universe   []UniverseEntry

	eventHorizon time.Duration
}

type ServiceParams struct {
	Builder    *engine.SnapshotBuilder
	Candles    CandleRepository
	Events     EventRepository
	MarketData MarketDataProvider
	Sentiment  SentimentProvider
	Bias       BiasProvider
	Store      SnapshotStore
	Cache      *SnapshotCache
	Universe   []UniverseEntry
}

func NewService(p ServiceParams) *Service {
	if p.Builder == nil {
		p.Builder = engine.NewSnapshotBuilder(nil)
	}
	if p.Cache == nil {
		p.Cache = NewSnapshotCache(0)
	}
	return &Service{
		builder:      p.Builder,
		candles:      p.Candles,
		events:       p.Events,
		marketData:   p.MarketData,
		sentiment:    p.Sentiment,
		bias:         p.Bias,
		store:        p.Store,
		cache:        p.Cache,
		universe:     p.Universe,
		eventHorizon: 72 * time.Hour,
	}
}

// candleWindows are the per-timeframe history depths loaded for scoring.
var candleWindows = []struct {
	tf    market.Timeframe
	limit int
}{
	{market.Timeframe1H, 500},
	{market.Timeframe1D, 400},
	{market.Timeframe1W, 156},
}

// Rebuild assembles the asset contexts for the whole universe at asOf,
// builds a fresh snapshot and persists it.
func (s *Service) Rebuild(ctx context.Context, asOf time.Time) (*engine.PerceptionSnapshot, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	contexts := make([]engine.AssetContext, 0, len(s.universe))
	for _, entry := range s.universe {
		ac, err := s.assetContext(ctx, entry, asOf)
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", entry.Asset.ID, err)
		}
		contexts = append(contexts, ac)
	}

	snap, err := s.builder.Build(ctx, contexts, asOf)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}
	s.cache.Add(snap)
	return snap, nil
}

func (s *Service) assetContext(ctx context.Context, entry UniverseEntry, asOf time.Time) (engine.AssetContext, error) {
	ac := engine.AssetContext{
		Asset:     entry.Asset,
		Profile:   entry.Profile,
		Direction: entry.Direction,
		Candles:   map[market.Timeframe][]market.Candle{},
	}

	if s.candles != nil {
		for _, w := range candleWindows {
			bars, err := s.candles.LatestCandles(ctx, entry.Asset.ID, w.tf, w.limit)
			if err != nil {
				return ac, fmt.Errorf("candles %s: %w", w.tf, err)
			}
			bars = trimAfter(bars, asOf)
			if len(bars) > 0 {
				ac.Candles[w.tf] = bars
			}
		}
	}

	if s.events != nil {
		events, err := s.events.UpcomingEvents(ctx, entry.Asset.ID, asOf, asOf.Add(s.eventHorizon))
		if err != nil {
			return ac, fmt.Errorf("events: %w", err)
		}
		ac.Events = events
	}

	if s.sentiment != nil {
		score, err := s.sentiment.SentimentScore(ctx, entry.Asset.Symbol)
		if err != nil {
			logger.Warnf("sentiment for %s unavailable: %v", entry.Asset.Symbol, err)
		} else {
			ac.SentimentScore = score
		}
	}

	if s.bias != nil {
		atTime, baseline, err := s.bias.BiasScores(ctx, entry.Asset.ID, asOf)
		if err != nil {
			logger.Warnf("bias for %s unavailable: %v", entry.Asset.ID, err)
		} else {
			ac.BiasScoreAtTime = atTime
			ac.BiasScore = baseline
		}
	}

	return ac, nil
}

// Today returns the freshest snapshot available, building one only when
// neither the cache nor the store has anything.
func (s *Service) Today(ctx context.Context) (*engine.PerceptionSnapshot, error) {
	if snap, ok := s.cache.Latest(); ok {
		return snap, nil
	}
	if s.store != nil {
		snap, err := s.store.LatestSnapshot(ctx, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if snap != nil {
			s.cache.Add(snap)
			return snap, nil
		}
	}
	return s.Rebuild(ctx, time.Now().UTC())
}

func (s *Service) History() []*engine.PerceptionSnapshot {
	return s.cache.History()
}

// RefreshMarketData pulls fresh bars from the provider into the candle
// repository for every universe asset. Missing collaborators make this a
// no-op rather than an error so read-only deployments keep working.
func (s *Service) RefreshMarketData(ctx context.Context) error {
	if s.marketData == nil || s.candles == nil {
		return nil
	}
	for _, entry := range s.universe {
		for _, tf := range []market.Timeframe{market.Timeframe1H, market.Timeframe1D} {
			bars, err := s.marketData.FetchCandles(ctx, entry.Asset.Symbol, tf, 500)
			if err != nil {
				return fmt.Errorf("fetch %s %s: %w", entry.Asset.Symbol, tf, err)
			}
			res, err := s.candles.WriteCandles(ctx, entry.Asset.ID, tf, bars)
			if err != nil {
				return fmt.Errorf("write %s %s: %w", entry.Asset.ID, tf, err)
			}
			logger.Debugf("refreshed %s %s: %s", entry.Asset.ID, tf, describeWrite(res))
		}
	}
	return nil
}

// trimAfter drops bars opening after asOf so a rebuild at a past timestamp
// never sees data from its own future.
func trimAfter(bars []market.Candle, asOf time.Time) []market.Candle {
	for len(bars) > 0 && bars[len(bars)-1].Timestamp.After(asOf) {
		bars = bars[:len(bars)-1]
	}
	return bars
}

func describeWrite(res WriteResult) string {
	if res.Upserted != nil {
		return fmt.Sprintf("%d upserted", *res.Upserted)
	}
	if res.Inserted != nil {
		return fmt.Sprintf("%d inserted", *res.Inserted)
	}
	if res.Note != "" {
		return res.Note
	}
	return "done"
}
