package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sentra/internal/analysis"
	"sentra/internal/logger"
	"sentra/internal/market"
)

// ErrNoSetups is returned when a snapshot build produced zero setups: an
// empty snapshot has no setup of the day and must not be published.
var ErrNoSetups = errors.New("no setups available to pick setup of the day")

const snapshotVersion = "perception-v1"

// AssetContext is everything known about one asset at build time: the
// candle windows, the upcoming calendar and whatever upstream scores exist.
// Optional scores are pointers so absence stays distinguishable from zero.
type AssetContext struct {
	Asset           market.Asset
	Profile         market.Profile
	Candles         map[market.Timeframe][]market.Candle
	Events          []market.Event
	BiasScore       *float64
	BiasScoreAtTime *float64
	SentimentScore  *float64
	BalanceScore    *float64
	SignalQuality   *float64
	Direction       Direction
	ReferencePrice  float64
	SignalAsOf      time.Time
}

// SnapshotBuilder runs the full scoring and decision pipeline for a set of
// assets and assembles the resulting snapshot.
type SnapshotBuilder struct {
	mu          sync.RWMutex
	resolver    *PlaybookResolver
	version     string
	concurrency int
}

func NewSnapshotBuilder(resolver *PlaybookResolver) *SnapshotBuilder {
	if resolver == nil {
		resolver = NewPlaybookResolver(nil)
	}
	return &SnapshotBuilder{resolver: resolver, version: snapshotVersion, concurrency: 4}
}

// SetResolver swaps the playbook resolver, e.g. after a threshold override
// reload. Safe under concurrent builds.
func (b *SnapshotBuilder) SetResolver(resolver *PlaybookResolver) {
	if resolver == nil {
		return
	}
	b.mu.Lock()
	b.resolver = resolver
	b.mu.Unlock()
}

func (b *SnapshotBuilder) playbookResolver() *PlaybookResolver {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resolver
}

// Build scores every asset concurrently, then ranks the setups into a
// deterministic order and picks the setup of the day. Same inputs and same
// asOf always produce an identical snapshot, including its identifier.
func (b *SnapshotBuilder) Build(ctx context.Context, assets []AssetContext, asOf time.Time) (*PerceptionSnapshot, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	setups := make([]Setup, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, ac := range assets {
		i, ac := i, ac
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			setups[i] = b.BuildSetup(ac, asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(setups) == 0 {
		return nil, ErrNoSetups
	}

	rankSetups(setups)

	universe := make([]string, len(setups))
	for i, s := range setups {
		universe[i] = s.AssetID
	}

	snap := &PerceptionSnapshot{
		ID:              deterministicID("snapshot", asOf.UTC().Format(time.RFC3339)),
		GeneratedAt:     asOf.UTC(),
		Universe:        universe,
		Setups:          setups,
		SetupOfTheDayID: pickSetupOfTheDay(setups),
		Version:         b.version,
	}
	logger.Infof("snapshot %s built: %d setups, setup of the day %s", snap.ID, len(setups), snap.SetupOfTheDayID)
	return snap, nil
}

// BuildSetup runs one asset through metrics extraction, ring computation,
// playbook grading and decision derivation.
func (b *SnapshotBuilder) BuildSetup(ac AssetContext, asOf time.Time) Setup {
	metricsIn := MetricsInput{
		Profile:        ac.Profile,
		Candles:        ac.Candles,
		ReferencePrice: ac.ReferencePrice,
		Now:            asOf,
	}
	if daily := ac.Candles[market.Timeframe1D]; len(daily) > 0 {
		closes := make([]float64, len(daily))
		for i, c := range daily {
			closes[i] = c.Close
		}
		if sig, ok := analysis.DetectPattern(closes); ok {
			metricsIn.PatternScore = &sig.Score
			metricsIn.PatternType = sig.Type
		}
	}
	metrics := ExtractMetrics(metricsIn)

	eventScore, notes := ScoreEvents(ac.Events, asOf)

	sentiment := ac.SentimentScore
	if sentiment == nil {
		v := FallbackSentiment(ac.Asset.Symbol, asOf)
		sentiment = &v
		notes = append(notes, NoteHashFallback)
	}
	if ac.BiasScore == nil && ac.BiasScoreAtTime == nil {
		notes = append(notes, NoteNoBiasSnapshot)
	}
	if !metrics.HasPrice {
		notes = append(notes, NoteNoMarketData)
	}
	if ac.Profile != market.ProfileSwing && ac.Profile != market.ProfilePosition &&
		len(ac.Candles[market.Timeframe1H]) == 0 {
		notes = append(notes, NoteNoIntradayCandles)
	}

	src := RingSource{
		PatternType:     metrics.PatternType,
		EventScore:      eventScore,
		BiasScore:       ac.BiasScore,
		BiasScoreAtTime: ac.BiasScoreAtTime,
		SentimentScore:  sentiment,
		BalanceScore:    ac.BalanceScore,
		Direction:       ac.Direction,
	}
	if metrics.HasPrice {
		src.Breakdown = &Breakdown{
			Trend:      &metrics.TrendScore,
			Momentum:   &metrics.MomentumScore,
			Volatility: &metrics.VolatilityScore,
			Pattern:    &metrics.PatternScore,
		}
	}
	rings := ComputeRingsFromSource(src)

	confidence := AggregateConfidenceForProfile(ac.Profile, rings)
	balance := BalanceScore(rings.Event, rings.Bias, rings.Sentiment)
	score := ComputeSetupScore(SetupScoreInput{
		Trend:      &rings.Trend,
		Bias:       &rings.Bias,
		Momentum:   &metrics.MomentumScore,
		Volatility: &metrics.VolatilityScore,
		Pattern:    &metrics.PatternScore,
	})

	resolution := b.playbookResolver().Resolve(ac.Asset, ac.Profile)
	modifier := BuildEventModifier(ac.Events, asOf, resolution.Playbook.Thresholds.EventBlockHours)

	evalIn := EvaluationInput{Rings: rings, EventModifier: &modifier}
	if ac.SignalQuality != nil {
		evalIn.SignalQuality = *ac.SignalQuality
		evalIn.HasSignalQuality = true
	}
	verdict := EvaluatePlaybook(resolution.Playbook, evalIn)

	validity := Validity{
		IsStale:     metrics.IsStale,
		EvaluatedAt: asOf.UTC(),
		Reasons:     append(append([]string(nil), metrics.Reasons...), notes...),
	}
	if !ac.SignalAsOf.IsZero() && asOf.Sub(ac.SignalAsOf) > 24*time.Hour {
		validity.IsStale = true
		validity.Reasons = append(validity.Reasons, NoteStaleSignal)
	}

	decision := DeriveDecision(DecisionInput{
		Grade:            verdict.Grade,
		NoTradeReason:    verdict.NoTradeReason,
		AlignmentMissing: verdict.AlignmentMissing,
		Rings:            rings,
		Class:            ac.Asset.Class,
		Direction:        ac.Direction,
		Validity:         validity,
		EventModifier:    &modifier,
		HasLevels:        metrics.HasPrice,
	})

	setup := Setup{
		ID:               deterministicID("setup", ac.Asset.ID+"|"+asOf.UTC().Format(time.RFC3339)),
		AssetID:          ac.Asset.ID,
		Symbol:           ac.Asset.Symbol,
		Name:             ac.Asset.Name,
		Class:            ac.Asset.Class,
		Timeframe:        primaryOrder(ac.Profile == market.ProfileSwing || ac.Profile == market.ProfilePosition)[0],
		Profile:          ac.Profile,
		Direction:        decision.Direction,
		Rings:            rings,
		RingMeta:         BuildRingMeta(RingMetaInput{Source: src, AsOf: asOf, IsStale: validity.IsStale, Notes: notes}),
		Confidence:       confidence,
		EventScore:       rings.Event,
		BiasScore:        rings.Bias,
		SentimentScore:   rings.Sentiment,
		OrderflowScore:   rings.Orderflow,
		BalanceScore:     balance,
		ScoreTotal:       score.Total,
		PlaybookID:       resolution.Playbook.ID,
		PlaybookReason:   resolution.Reason,
		Grade:            verdict.Grade,
		GradeRationale:   verdict.Rationale,
		NoTradeReason:    verdict.NoTradeReason,
		AlignmentMissing: verdict.AlignmentMissing,
		Decision:         decision.Decision,
		DecisionCategory: decision.Category,
		DecisionReasons:  decision.Reasons,
		WatchSegment:     decision.WatchSegment,
		Validity:         validity,
		EventModifier:    &modifier,
	}

	if levels, ok := ComputeLevels(LevelsInput{
		Direction:       decision.Direction,
		LastPrice:       metrics.LastPrice,
		VolatilityScore: metrics.VolatilityScore,
	}); ok {
		setup.EntryZone = &levels.EntryZone
		setup.StopLoss = levels.StopLoss
		setup.TakeProfit = levels.TakeProfit
		setup.RiskReward = &levels.RiskReward
	}
	return setup
}

// rankSetups orders swing setups ahead of shorter horizons, then by
// confidence descending with the symbol as a stable tie breaker.
func rankSetups(setups []Setup) {
	sort.SliceStable(setups, func(i, j int) bool {
		si, sj := setups[i], setups[j]
		iSwing := si.Profile == market.ProfileSwing
		jSwing := sj.Profile == market.ProfileSwing
		if iSwing != jSwing {
			return iSwing
		}
		if si.Confidence != sj.Confidence {
			return si.Confidence > sj.Confidence
		}
		return si.Symbol < sj.Symbol
	})
}

// pickSetupOfTheDay prefers the strongest swing setup and falls back to the
// overall top-ranked one.
func pickSetupOfTheDay(setups []Setup) string {
	for _, s := range setups {
		if s.Profile == market.ProfileSwing {
			return s.ID
		}
	}
	return setups[0].ID
}

func deterministicID(kind, key string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+"|"+key)).String())
}
