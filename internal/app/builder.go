package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sentra/internal/backtest"
	"sentra/internal/config"
	"sentra/internal/engine"
	"sentra/internal/logger"
	"sentra/internal/market"
	"sentra/internal/perception"
	"sentra/internal/provider"
	"sentra/internal/store/candlestore"
	"sentra/internal/store/eventstore"
	"sentra/internal/store/gormstore"
	transporthttp "sentra/internal/transport/http"
)

// AppBuilder assembles the application object graph from configuration.
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	candles, err := candlestore.NewStore(cfg.Data.CandleRoot)
	if err != nil {
		return nil, fmt.Errorf("open candle store: %w", err)
	}
	events, err := eventstore.NewStore(cfg.Data.EventDB)
	if err != nil {
		candles.Close()
		return nil, fmt.Errorf("open event store: %w", err)
	}
	store, err := gormstore.NewStore(cfg.Data.StoreDB)
	if err != nil {
		candles.Close()
		events.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	overrides, err := engine.LoadThresholdOverrides(cfg.Engine.PlaybookOverrides)
	if err != nil {
		logger.Warnf("playbook overrides unavailable: %v", err)
	}
	resolver := engine.NewPlaybookResolver(overrides)
	builder := engine.NewSnapshotBuilder(resolver)

	var marketData perception.MarketDataProvider
	var sentiment perception.SentimentProvider
	if cfg.Binance.Enabled {
		binance := provider.NewBinance(provider.BinanceConfig{BaseURL: cfg.Binance.BaseURL})
		marketData = binance
		sentiment = provider.NewBinanceSentiment(binance, cfg.Binance.SentimentPeriod)
	}

	universe := cfg.ToUniverse()
	perceptionSvc := perception.NewService(perception.ServiceParams{
		Builder:    builder,
		Candles:    candles,
		Events:     events,
		MarketData: marketData,
		Sentiment:  sentiment,
		Bias:       store,
		Store:      store,
		Cache:      perception.NewSnapshotCache(cfg.Engine.CacheCapacity),
		Universe:   universe,
	})
	backtestSvc := backtest.NewService(builder, candles, store, universe)

	var calendar *provider.Calendar
	if src := strings.TrimSpace(cfg.Calendar.Source); src != "" {
		calendar = provider.NewCalendar(src, calendarAssetMapper(universe))
	}

	if err := os.MkdirAll(cfg.Data.ReportDir, 0o755); err != nil {
		logger.Warnf("report dir unavailable: %v", err)
	}

	server, err := transporthttp.NewServer(transporthttp.Config{
		Addr:       cfg.Server.Addr,
		Perception: perceptionSvc,
		Backtest:   backtestSvc,
		ReportDir:  cfg.Data.ReportDir,
	})
	if err != nil {
		return nil, fmt.Errorf("build http server: %w", err)
	}

	return &App{
		cfg:        cfg,
		builder:    builder,
		candles:    candles,
		events:     events,
		store:      store,
		perception: perceptionSvc,
		backtest:   backtestSvc,
		calendar:   calendar,
		server:     server,
	}, nil
}

// calendarAssetMapper targets currency-tagged events at FX assets and
// leaves the rest global.
func calendarAssetMapper(universe []perception.UniverseEntry) func(market.Event) []string {
	return func(ev market.Event) []string {
		if ev.Currency == "" {
			return nil
		}
		var ids []string
		for _, entry := range universe {
			if entry.Asset.Class != market.AssetClassFX {
				continue
			}
			if strings.Contains(strings.ToUpper(entry.Asset.Symbol), strings.ToUpper(ev.Currency)) {
				ids = append(ids, entry.Asset.ID)
			}
		}
		return ids
	}
}
