package engine

import (
	"time"

	"sentra/internal/market"
)

type RingQuality string

const (
	QualityLive      RingQuality = "live"
	QualityHeuristic RingQuality = "heuristic"
	QualityFallback  RingQuality = "fallback"
	QualityDerived   RingQuality = "derived"
	QualityStale     RingQuality = "stale"
)

// RingMeta carries the provenance of one ring score.
type RingMeta struct {
	Quality   RingQuality `json:"quality"`
	Timeframe string      `json:"timeframe,omitempty"`
	AsOf      string      `json:"asOf,omitempty"`
	Notes     []string    `json:"notes,omitempty"`
}

// SetupRings holds the five named ring scores plus the trend input that
// several consumers read alongside them. All values are in [0,100].
type SetupRings struct {
	Trend      float64 `json:"trendScore"`
	Event      float64 `json:"event"`
	Bias       float64 `json:"bias"`
	Sentiment  float64 `json:"sentiment"`
	Orderflow  float64 `json:"orderflow"`
	Confidence float64 `json:"confidence"`
}

type SetupRingMeta struct {
	Trend      RingMeta `json:"trend"`
	Event      RingMeta `json:"event"`
	Bias       RingMeta `json:"bias"`
	Sentiment  RingMeta `json:"sentiment"`
	Orderflow  RingMeta `json:"orderflow"`
	Confidence RingMeta `json:"confidence"`
}

type Grade string

const (
	GradeA       Grade = "A"
	GradeB       Grade = "B"
	GradeNoTrade Grade = "NO_TRADE"
)

type Decision string

const (
	DecisionTrade   Decision = "TRADE"
	DecisionWatch   Decision = "WATCH"
	DecisionBlocked Decision = "BLOCKED"
)

type DecisionCategory string

const (
	CategoryHard DecisionCategory = "hard"
	CategorySoft DecisionCategory = "soft"
)

type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionNeutral Direction = "neutral"
)

// MarketMetrics are the market-structure scores derived from one candle
// window. Immutable once computed.
type MarketMetrics struct {
	TrendScore      float64   `json:"trendScore"`
	MomentumScore   float64   `json:"momentumScore"`
	VolatilityScore float64   `json:"volatilityScore"`
	PatternScore    float64   `json:"patternScore"`
	PatternType     string    `json:"patternType,omitempty"`
	PriceDriftPct   float64   `json:"priceDriftPct"`
	LastPrice       float64   `json:"lastPrice"`
	HasPrice        bool      `json:"hasPrice"`
	IsStale         bool      `json:"isStale"`
	Reasons         []string  `json:"reasons,omitempty"`
	EvaluatedAt     time.Time `json:"evaluatedAt"`
}

type Validity struct {
	IsStale     bool      `json:"isStale"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
	Reasons     []string  `json:"reasons,omitempty"`
}

type PriceRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

type RiskReward struct {
	RRR             float64 `json:"rrr"`
	RiskPercent     float64 `json:"riskPercent"`
	RewardPercent   float64 `json:"rewardPercent"`
	VolatilityLabel string  `json:"volatilityLabel"`
}

type EventModifierClassification string

const (
	EventNone              EventModifierClassification = "none"
	EventAwarenessOnly     EventModifierClassification = "awareness_only"
	EventContextRelevant   EventModifierClassification = "context_relevant"
	EventExecutionCritical EventModifierClassification = "execution_critical"
)

type PrimaryEvent struct {
	Title          string  `json:"title"`
	ScheduledAt    string  `json:"scheduledAt,omitempty"`
	Impact         int     `json:"impact"`
	MinutesToEvent float64 `json:"minutesToEvent"`
	HasTiming      bool    `json:"hasTiming"`
	Source         string  `json:"source,omitempty"`
	Country        string  `json:"country,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	Category       string  `json:"category,omitempty"`
}

type EventModifier struct {
	Classification       EventModifierClassification `json:"classification"`
	PrimaryEvent         *PrimaryEvent               `json:"primaryEvent,omitempty"`
	Rationale            []string                    `json:"rationale,omitempty"`
	ExecutionAdjustments []string                    `json:"executionAdjustments,omitempty"`
	UsedFallback         bool                        `json:"usedFallback"`
	MissingFields        []string                    `json:"missingFields,omitempty"`
}

// Setup is one asset's fully scored and decided trading candidate.
type Setup struct {
	ID        string           `json:"id"`
	AssetID   string           `json:"assetId"`
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name,omitempty"`
	Class     market.AssetClass `json:"assetClass"`
	Timeframe market.Timeframe `json:"timeframe"`
	Profile   market.Profile   `json:"profile"`
	Direction Direction        `json:"direction,omitempty"`

	Rings    SetupRings    `json:"rings"`
	RingMeta SetupRingMeta `json:"ringMeta"`

	Confidence     float64 `json:"confidence"`
	EventScore     float64 `json:"eventScore"`
	BiasScore      float64 `json:"biasScore"`
	SentimentScore float64 `json:"sentimentScore"`
	OrderflowScore float64 `json:"orderflowScore"`
	BalanceScore   float64 `json:"balanceScore"`
	ScoreTotal     float64 `json:"scoreTotal"`

	PlaybookID       string `json:"playbookId"`
	PlaybookReason   string `json:"playbookReason,omitempty"`
	Grade            Grade  `json:"setupGrade"`
	GradeRationale   []string `json:"gradeRationale,omitempty"`
	NoTradeReason    string `json:"noTradeReason,omitempty"`
	AlignmentMissing bool   `json:"alignmentMissing,omitempty"`

	Decision         Decision         `json:"setupDecision"`
	DecisionCategory DecisionCategory `json:"decisionCategory,omitempty"`
	DecisionReasons  []string         `json:"decisionReasons,omitempty"`
	WatchSegment     string           `json:"watchSegment,omitempty"`

	Validity      Validity       `json:"validity"`
	EventModifier *EventModifier `json:"eventModifier,omitempty"`

	EntryZone  *PriceRange `json:"entryZone,omitempty"`
	StopLoss   float64     `json:"stopLoss,omitempty"`
	TakeProfit float64     `json:"takeProfit,omitempty"`
	RiskReward *RiskReward `json:"riskReward,omitempty"`
}

// PerceptionSnapshot is the full output of one engine run.
type PerceptionSnapshot struct {
	ID              string    `json:"id"`
	GeneratedAt     time.Time `json:"generatedAt"`
	Universe        []string  `json:"universe"`
	Setups          []Setup   `json:"setups"`
	SetupOfTheDayID string    `json:"setupOfTheDayId"`
	Version         string    `json:"version"`
}
