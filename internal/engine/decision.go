package engine

import (
	"fmt"
	"strings"

	"sentra/internal/market"
)

const maxDecisionReasons = 3

// Watch segments bucket WATCH outcomes by their dominant failing dimension
// so downstream consumers can group them without parsing reason text.
const (
	WatchEventRiskHigh   = "WATCH_EVENT_RISK_HIGH"
	WatchFailsBias       = "WATCH_FAILS_BIAS"
	WatchFailsTrend      = "WATCH_FAILS_TREND"
	WatchFailsConfidence = "WATCH_FAILS_CONFIDENCE"
	WatchOther           = "WATCH_OTHER"
)

var hardReasonKeywords = []string{"event", "knockout", "conflict", "stale", "missing", "invalid", "rrr"}

var softReasonKeywords = []string{"bias", "trend", "signal", "confidence", "quality"}

// AlignmentStrategy derives a tradable direction for setups whose playbook
// rejected them for missing directional alignment. Template holds one %s
// slot for the derived direction.
type AlignmentStrategy struct {
	Template  string
	BiasFloor float64
}

var alignmentStrategies = map[market.AssetClass]AlignmentStrategy{
	market.AssetClassIndex:  {Template: "Alignment derived (index fallback: %s)", BiasFloor: 60},
	market.AssetClassFX:     {Template: "Alignment derived (fx fallback: %s)", BiasFloor: 60},
	market.AssetClassCrypto: {Template: "Alignment derived (fallback: %s)", BiasFloor: 70},
}

// Derive keeps a declared direction and otherwise infers one from trend and
// bias strength.
func (s AlignmentStrategy) Derive(declared Direction, rings SetupRings) (Direction, string) {
	dir := declared
	if dir != DirectionLong && dir != DirectionShort {
		if rings.Trend >= 50 || rings.Bias >= s.BiasFloor {
			dir = DirectionLong
		} else {
			dir = DirectionShort
		}
	}
	return dir, fmt.Sprintf(s.Template, strings.ToUpper(string(dir)))
}

// DecisionInput is the graded setup state the deriver works from.
type DecisionInput struct {
	Grade            Grade
	NoTradeReason    string
	AlignmentMissing bool
	Rings            SetupRings
	Class            market.AssetClass
	Direction        Direction
	Validity         Validity
	EventModifier    *EventModifier
	HasLevels        bool
}

type DecisionResult struct {
	Decision     Decision
	Category     DecisionCategory
	Reasons      []string
	WatchSegment string
	Direction    Direction
}

// DeriveDecision maps a playbook verdict onto the final TRADE, WATCH or
// BLOCKED call. Tradable grades pass through untouched; rejected setups are
// blocked only when the leading reason is a hard one, and otherwise kept on
// watch with the failing dimensions listed.
func DeriveDecision(in DecisionInput) DecisionResult {
	if in.Grade == GradeA || in.Grade == GradeB {
		return DecisionResult{Decision: DecisionTrade, Direction: workingDirection(in.Direction, in)}
	}

	direction := in.Direction
	var reasons []string

	if in.AlignmentMissing {
		if strategy, ok := alignmentStrategies[in.Class]; ok {
			derived, reason := strategy.Derive(in.Direction, in.Rings)
			direction = derived
			reasons = append(reasons, reason)
		} else {
			if in.NoTradeReason != "" {
				reasons = append(reasons, in.NoTradeReason)
			}
			reasons = append(reasons, fmt.Sprintf("Alignment unavailable (%s)", in.Class))
		}
	} else if in.NoTradeReason != "" {
		reasons = append(reasons, in.NoTradeReason)
	}

	direction = workingDirection(direction, in)

	if in.EventModifier != nil && in.EventModifier.Classification == EventExecutionCritical &&
		!containsReason(reasons, "event") {
		reasons = append(reasons, "Execution-critical event window")
	}
	if in.Validity.IsStale {
		reasons = append(reasons, "Stale validity")
	}
	if !in.HasLevels {
		reasons = append(reasons, "Missing price levels")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "No tradable setup")
	}

	reasons = hardReasonsFirst(reasons)
	category := classifyReason(reasons[0])

	result := DecisionResult{
		Category:  category,
		Reasons:   reasons,
		Direction: direction,
	}
	if category == CategoryHard {
		result.Decision = DecisionBlocked
	} else {
		result.Decision = DecisionWatch
		if in.Class == market.AssetClassFX {
			result.WatchSegment = fxWatchSegment(in.Rings)
			result.Reasons = append([]string{result.WatchSegment}, result.Reasons...)
		}
	}
	if len(result.Reasons) > maxDecisionReasons {
		result.Reasons = result.Reasons[:maxDecisionReasons]
	}
	return result
}

// workingDirection keeps a resolved direction and otherwise breaks the tie
// from trend posture, but only for priced setups. Levels need a side, so a
// setup reporting HasLevels must never leave here directionless.
func workingDirection(current Direction, in DecisionInput) Direction {
	if current == DirectionLong || current == DirectionShort {
		return current
	}
	if !in.HasLevels {
		return current
	}
	if in.Rings.Trend >= 50 {
		return DirectionLong
	}
	return DirectionShort
}

// fxWatchSegment picks the single dominant failing dimension, checked in
// strict precedence order: event risk, then bias, trend and confidence.
func fxWatchSegment(rings SetupRings) string {
	switch {
	case rings.Event >= 70:
		return WatchEventRiskHigh
	case rings.Bias < 65:
		return WatchFailsBias
	case rings.Trend < 50:
		return WatchFailsTrend
	case rings.Confidence < 55:
		return WatchFailsConfidence
	default:
		return WatchOther
	}
}

func hardReasonsFirst(reasons []string) []string {
	var hard, rest []string
	for _, r := range reasons {
		if classifyReason(r) == CategoryHard {
			hard = append(hard, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(hard, rest...)
}

func classifyReason(reason string) DecisionCategory {
	lower := strings.ToLower(reason)
	for _, kw := range hardReasonKeywords {
		if strings.Contains(lower, kw) {
			return CategoryHard
		}
	}
	for _, kw := range softReasonKeywords {
		if strings.Contains(lower, kw) {
			return CategorySoft
		}
	}
	return CategorySoft
}

func containsReason(reasons []string, keyword string) bool {
	for _, r := range reasons {
		if strings.Contains(strings.ToLower(r), keyword) {
			return true
		}
	}
	return false
}
