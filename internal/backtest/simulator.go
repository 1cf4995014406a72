package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentra/internal/engine"
	"sentra/internal/logger"
	"sentra/internal/market"
)

var (
	ErrInvalidRange     = errors.New("backtest range: from must be before to")
	ErrInvalidStepHours = errors.New("backtest stepHours must be positive")
	ErrNoBars           = errors.New("backtest: no bars in range")
)

// Simulator replays the decision pipeline over a historical bar series.
// At every step the engine only sees bars up to and including that step;
// fills happen at the open of the following step.
type Simulator struct {
	builder *engine.SnapshotBuilder
	asset   market.Asset
	profile market.Profile
}

func NewSimulator(builder *engine.SnapshotBuilder, asset market.Asset, profile market.Profile) *Simulator {
	if builder == nil {
		builder = engine.NewSnapshotBuilder(nil)
	}
	if profile == "" {
		profile = market.ProfileSwing
	}
	return &Simulator{builder: builder, asset: asset, profile: profile}
}

type openPosition struct {
	side       engine.Direction
	entryStep  int
	entryPrice float64
	entryAt    time.Time
}

// Run simulates the request over the given bars, which must be in
// chronological order at the requested step cadence.
func (s *Simulator) Run(ctx context.Context, req RunRequest, bars []market.Candle) (*RunResult, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return nil, err
	}
	if req.StepHours <= 0 {
		return nil, ErrInvalidStepHours
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	costs := CostsConfig{}
	if req.Costs != nil {
		costs = *req.Costs
	}
	exit := DefaultExitPolicy()
	if req.Exit != nil {
		exit = *req.Exit
	}
	if exit.HoldSteps <= 0 {
		exit.HoldSteps = DefaultExitPolicy().HoldSteps
	}

	runKey, err := ComputeRunKey(req.AssetID, req.From, req.To, req.StepHours, costs, exit)
	if err != nil {
		return nil, err
	}

	// The engine must read the series it replays: sub-daily cadences key
	// the history hourly, and swing-style profiles only look at daily
	// structure, so those runs step down to the intraday profile.
	tf := market.Timeframe1H
	profile := s.profile
	if req.StepHours >= 24 {
		tf = market.Timeframe1D
	} else if profile == market.ProfileSwing || profile == market.ProfilePosition {
		profile = market.ProfileIntraday
	}

	result := &RunResult{
		RunKey:    runKey,
		AssetID:   req.AssetID,
		From:      from,
		To:        to,
		StepHours: req.StepHours,
		Costs:     costs,
		Exit:      exit,
		StartedAt: time.Now().UTC(),
	}

	var position *openPosition
	equity := 0.0

	for i := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := bars[i]
		history := bars[:i+1]

		setup := s.builder.BuildSetup(engine.AssetContext{
			Asset:     s.asset,
			Profile:   profile,
			Candles:   map[market.Timeframe][]market.Candle{tf: history},
			BiasScore: biasProxy(history),
		}, bar.Timestamp)

		result.Steps = append(result.Steps, StepRecord{
			StepIndex:   i,
			Timestamp:   bar.Timestamp,
			Decision:    setup.Decision,
			Grade:       setup.Grade,
			ScoreGrade:  engine.GradeFromScore(setup.ScoreTotal),
			ScoreTotal:  setup.ScoreTotal,
			Confidence:  setup.Confidence,
			HasTopSetup: true,
		})

		if position != nil {
			barsHeld := i - position.entryStep + 1
			if barsHeld >= exit.HoldSteps {
				equity += s.closeTrade(result, position, i, bar, "time-exit", costs)
				position = nil
			}
		}

		if position == nil && setup.Decision == engine.DecisionTrade {
			intent := OrderIntent{
				AssetID:     req.AssetID,
				Side:        tradeSide(setup.Direction),
				AsOf:        bar.Timestamp.UTC().Format(time.RFC3339),
				EntryPolicy: "next-step-open",
				StepIndex:   i,
			}
			if i+1 < len(bars) {
				intent.Filled = true
				next := bars[i+1]
				position = &openPosition{
					side:       intent.Side,
					entryStep:  i + 1,
					entryPrice: next.Open,
					entryAt:    next.Timestamp,
				}
			}
			result.Intents = append(result.Intents, intent)
		}

		result.EquityCurve = append(result.EquityCurve, equity)
	}

	if position != nil {
		last := len(bars) - 1
		equity += s.closeTrade(result, position, last, bars[last], "end-of-range", costs)
		result.EquityCurve[len(result.EquityCurve)-1] = equity
	}

	result.KPIs = ComputeKPIs(result.Trades, result.EquityCurve)
	result.Summary = ComputeSummary(result.Steps)
	result.FinishedAt = time.Now().UTC()
	logger.Infof("backtest %s: %d steps, %d trades, net %.4f", runKey[:12], len(result.Steps), len(result.Trades), result.KPIs.NetPnl)
	return result, nil
}

func (s *Simulator) closeTrade(result *RunResult, pos *openPosition, stepIndex int, bar market.Candle, reason string, costs CostsConfig) float64 {
	exitPrice := bar.Open
	gross := exitPrice - pos.entryPrice
	if pos.side == engine.DirectionShort {
		gross = -gross
	}
	fees := legCost(pos.entryPrice, costs.FeeBps) + legCost(exitPrice, costs.FeeBps)
	slip := legCost(pos.entryPrice, costs.SlippageBps) + legCost(exitPrice, costs.SlippageBps)
	trade := Trade{
		AssetID:        result.AssetID,
		Side:           pos.side,
		EntryStepIndex: pos.entryStep,
		ExitStepIndex:  stepIndex,
		EntryPrice:     pos.entryPrice,
		ExitPrice:      exitPrice,
		EntryAt:        pos.entryAt,
		ExitAt:         bar.Timestamp,
		BarsHeld:       stepIndex - pos.entryStep + 1,
		ExitReason:     reason,
		GrossPnl:       gross,
		Fees:           fees,
		Slippage:       slip,
		NetPnl:         gross - fees - slip,
	}
	result.Trades = append(result.Trades, trade)
	return trade.NetPnl
}

// biasProxy stands in for a recorded bias series, which historical replays
// rarely have: one percent of price change over the trailing window moves
// the proxy one point away from neutral.
func biasProxy(history []market.Candle) *float64 {
	if len(history) < 2 {
		return nil
	}
	refIdx := len(history) - 31
	if refIdx < 0 {
		refIdx = 0
	}
	ref := history[refIdx].Close
	if ref == 0 {
		return nil
	}
	delta := (history[len(history)-1].Close - ref) / ref * 100
	proxy := 50 + delta
	if proxy < 0 {
		proxy = 0
	}
	if proxy > 100 {
		proxy = 100
	}
	return &proxy
}

func legCost(price, bps float64) float64 {
	return price * bps / 10000
}

func tradeSide(dir engine.Direction) engine.Direction {
	if dir == engine.DirectionShort {
		return engine.DirectionShort
	}
	return engine.DirectionLong
}

func parseRange(req RunRequest) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse from: %w", err)
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse to: %w", err)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from, to, nil
}
