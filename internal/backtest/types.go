package backtest

import (
	"time"

	"sentra/internal/engine"
)

// CostsConfig models per-leg trading costs in basis points of the fill
// price.
type CostsConfig struct {
	FeeBps      float64 `json:"feeBps"`
	SlippageBps float64 `json:"slippageBps"`
}

// ExitPolicy describes when and at what price an open position is closed.
// The only supported kind is hold-n-steps with exits at step open.
type ExitPolicy struct {
	Kind      string `json:"kind"`
	HoldSteps int    `json:"holdSteps"`
	Price     string `json:"price"`
}

func DefaultExitPolicy() ExitPolicy {
	return ExitPolicy{Kind: "hold-n-steps", HoldSteps: 3, Price: "step-open"}
}

// RunRequest is the externally supplied run description. From and To are RFC3339
// timestamps; Costs and Exit default when omitted.
type RunRequest struct {
	AssetID   string       `json:"assetId"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	StepHours float64      `json:"stepHours"`
	Costs     *CostsConfig `json:"costs,omitempty"`
	Exit      *ExitPolicy  `json:"exit,omitempty"`
}

// OrderIntent is the declarative order emitted when a step decides TRADE.
// Execution always happens at the open of the following step, never inside
// the step that produced the signal.
type OrderIntent struct {
	AssetID     string           `json:"assetId"`
	Side        engine.Direction `json:"side"`
	AsOf        string           `json:"asOf"`
	EntryPolicy string           `json:"entryPolicy"`
	StepIndex   int              `json:"stepIndex"`
	Filled      bool             `json:"filled"`
}

// Trade is one closed round trip with its cost-adjusted result.
type Trade struct {
	AssetID        string           `json:"assetId"`
	Side           engine.Direction `json:"side"`
	EntryStepIndex int              `json:"entryStepIndex"`
	ExitStepIndex  int              `json:"exitStepIndex"`
	EntryPrice     float64          `json:"entryPrice"`
	ExitPrice      float64          `json:"exitPrice"`
	EntryAt        time.Time        `json:"entryAt"`
	ExitAt         time.Time        `json:"exitAt"`
	BarsHeld       int              `json:"barsHeld"`
	ExitReason     string           `json:"exitReason"`
	GrossPnl       float64          `json:"grossPnl"`
	Fees           float64          `json:"fees"`
	Slippage       float64          `json:"slippage"`
	NetPnl         float64          `json:"netPnl"`
}

// StepRecord captures what the engine saw and decided at one step.
// ScoreGrade is the coarse letter derived from the setup score alone, kept
// next to the playbook grade for report labelling.
type StepRecord struct {
	StepIndex   int             `json:"stepIndex"`
	Timestamp   time.Time       `json:"timestamp"`
	Decision    engine.Decision `json:"decision"`
	Grade       engine.Grade    `json:"grade"`
	ScoreGrade  string          `json:"scoreGrade"`
	ScoreTotal  float64         `json:"scoreTotal"`
	Confidence  float64         `json:"confidence"`
	HasTopSetup bool            `json:"hasTopSetup"`
}

// KPIs are the aggregate performance numbers of one run. WinRate counts
// only decided trades: breakeven round trips dilute neither side.
type KPIs struct {
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"`
	NetPnl      float64 `json:"netPnl"`
	AvgPnl      float64 `json:"avgPnl"`
	MaxDrawdown float64 `json:"maxDrawdown"`
}

// Summary aggregates the decision and scoring activity across all steps.
type Summary struct {
	TotalSteps        int            `json:"totalSteps"`
	StepsWithTopSetup int            `json:"stepsWithTopSetup"`
	DecisionCounts    map[string]int `json:"decisionCounts"`
	GradeCounts       map[string]int `json:"gradeCounts"`
	AvgScoreTotal     float64        `json:"avgScoreTotal"`
	MinScoreTotal     float64        `json:"minScoreTotal"`
	MaxScoreTotal     float64        `json:"maxScoreTotal"`
	AvgConfidence     float64        `json:"avgConfidence"`
}

// RunResult is the full, persistable outcome of one simulated run.
type RunResult struct {
	RunKey      string        `json:"runKey"`
	AssetID     string        `json:"assetId"`
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	StepHours   float64       `json:"stepHours"`
	Costs       CostsConfig   `json:"costs"`
	Exit        ExitPolicy    `json:"exit"`
	Steps       []StepRecord  `json:"steps"`
	Intents     []OrderIntent `json:"intents"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []float64     `json:"equityCurve"`
	KPIs        KPIs          `json:"kpis"`
	Summary     Summary       `json:"summary"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
}
