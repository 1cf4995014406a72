package backtest

import (
	"context"
	"fmt"

	"sentra/internal/engine"
	"sentra/internal/logger"
	"sentra/internal/market"
	"sentra/internal/perception"
)

// RunStore persists finished runs keyed by their run key.
type RunStore interface {
	SaveRun(ctx context.Context, result *RunResult) error
	RunByKey(ctx context.Context, runKey string) (*RunResult, error)
	ListRuns(ctx context.Context, limit int) ([]*RunResult, error)
}

// Service loads the bar series for a request, replays it and persists the
// result. Identical requests are served from the store instead of being
// simulated twice.
type Service struct {
	builder *engine.SnapshotBuilder
	candles perception.CandleRepository
	store   RunStore
	assets  map[string]market.Asset
}

func NewService(builder *engine.SnapshotBuilder, candles perception.CandleRepository, store RunStore, universe []perception.UniverseEntry) *Service {
	assets := make(map[string]market.Asset, len(universe))
	for _, entry := range universe {
		assets[entry.Asset.ID] = entry.Asset
	}
	return &Service{builder: builder, candles: candles, store: store, assets: assets}
}

func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	costs := CostsConfig{}
	if req.Costs != nil {
		costs = *req.Costs
	}
	exit := DefaultExitPolicy()
	if req.Exit != nil {
		exit = *req.Exit
	}
	runKey, err := ComputeRunKey(req.AssetID, req.From, req.To, req.StepHours, costs, exit)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if existing, err := s.store.RunByKey(ctx, runKey); err == nil && existing != nil {
			logger.Debugf("backtest %s served from store", runKey[:12])
			return existing, nil
		}
	}

	from, to, err := parseRange(req)
	if err != nil {
		return nil, err
	}
	if req.StepHours <= 0 {
		return nil, ErrInvalidStepHours
	}

	asset, ok := s.assets[req.AssetID]
	if !ok {
		asset = market.Asset{ID: req.AssetID, Symbol: req.AssetID, Class: market.AssetClassUnknown}
	}

	tf := market.Timeframe1H
	if req.StepHours >= 24 {
		tf = market.Timeframe1D
	}
	var bars []market.Candle
	if s.candles != nil {
		bars, err = s.candles.Candles(ctx, req.AssetID, tf, from, to)
		if err != nil {
			return nil, fmt.Errorf("load bars: %w", err)
		}
	}

	sim := NewSimulator(s.builder, asset, market.ProfileSwing)
	result, err := sim.Run(ctx, req, bars)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, result); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}
	return result, nil
}

func (s *Service) RunByKey(ctx context.Context, runKey string) (*RunResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	return s.store.RunByKey(ctx, runKey)
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]*RunResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no run store configured")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListRuns(ctx, limit)
}

// WriteReportFile renders the HTML report for a stored run next to the
// given directory, named by run key.
func (s *Service) WriteReportFile(ctx context.Context, runKey, dir string) (string, error) {
	result, err := s.RunByKey(ctx, runKey)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("run %s not found", runKey)
	}
	path := fmt.Sprintf("%s/backtest-%s-%s.html", dir, result.AssetID, runKey[:12])
	if err := WriteReport(result, path); err != nil {
		return "", err
	}
	return path, nil
}
