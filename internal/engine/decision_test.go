package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sentra/internal/market"
)

func TestDeriveDecision_TradableGrades(t *testing.T) {
	for _, grade := range []Grade{GradeA, GradeB} {
		res := DeriveDecision(DecisionInput{Grade: grade, Direction: DirectionLong, HasLevels: true})
		assert.Equal(t, DecisionTrade, res.Decision)
		assert.Empty(t, res.Reasons)
		assert.Equal(t, DirectionLong, res.Direction)
	}
}

func TestDeriveDecision_HardReasonsBlock(t *testing.T) {
	t.Run("stale validity blocks", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:         GradeNoTrade,
			NoTradeReason: "Bias too weak",
			Validity:      Validity{IsStale: true},
			HasLevels:     true,
		})
		assert.Equal(t, DecisionBlocked, res.Decision)
		assert.Equal(t, CategoryHard, res.Category)
		assert.Equal(t, "Stale validity", res.Reasons[0])
	})

	t.Run("execution critical event blocks", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:         GradeNoTrade,
			NoTradeReason: "Execution-critical event window",
			EventModifier: &EventModifier{Classification: EventExecutionCritical},
			HasLevels:     true,
		})
		assert.Equal(t, DecisionBlocked, res.Decision)
		assert.Equal(t, "Execution-critical event window", res.Reasons[0])
	})

	t.Run("missing levels block", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{Grade: GradeNoTrade, NoTradeReason: "Bias too weak"})
		assert.Equal(t, DecisionBlocked, res.Decision)
		assert.Equal(t, "Missing price levels", res.Reasons[0])
	})
}

func TestDeriveDecision_SoftReasonsWatch(t *testing.T) {
	res := DeriveDecision(DecisionInput{
		Grade:         GradeNoTrade,
		NoTradeReason: "Trend too weak",
		HasLevels:     true,
	})
	assert.Equal(t, DecisionWatch, res.Decision)
	assert.Equal(t, CategorySoft, res.Category)
	assert.Equal(t, []string{"Trend too weak"}, res.Reasons)
}

func TestDeriveDecision_AlignmentStrategies(t *testing.T) {
	t.Run("index derives long from trend", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:            GradeNoTrade,
			NoTradeReason:    "No short alignment (bias implies short)",
			AlignmentMissing: true,
			Class:            market.AssetClassIndex,
			Rings:            SetupRings{Trend: 60, Bias: 30},
			HasLevels:        true,
		})
		assert.Equal(t, DecisionWatch, res.Decision)
		assert.Equal(t, DirectionLong, res.Direction)
		assert.Contains(t, res.Reasons, "Alignment derived (index fallback: LONG)")
	})

	t.Run("crypto derives short below both floors", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:            GradeNoTrade,
			AlignmentMissing: true,
			Class:            market.AssetClassCrypto,
			Rings:            SetupRings{Trend: 40, Bias: 60},
			HasLevels:        true,
		})
		assert.Equal(t, DirectionShort, res.Direction)
		assert.Contains(t, res.Reasons, "Alignment derived (fallback: SHORT)")
	})

	t.Run("class without strategy reports unavailable", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:            GradeNoTrade,
			NoTradeReason:    "No short alignment (bias implies short)",
			AlignmentMissing: true,
			Class:            market.AssetClassCommodity,
			HasLevels:        true,
		})
		assert.Contains(t, res.Reasons, "Alignment unavailable (commodity)")
	})
}

func TestDeriveDecision_FXWatchSegments(t *testing.T) {
	base := DecisionInput{
		Grade:         GradeNoTrade,
		NoTradeReason: "Bias too weak",
		Class:         market.AssetClassFX,
		HasLevels:     true,
	}

	t.Run("event risk outranks everything", func(t *testing.T) {
		in := base
		in.Rings = SetupRings{Event: 75, Bias: 40, Trend: 40, Confidence: 40}
		res := DeriveDecision(in)
		assert.Equal(t, DecisionWatch, res.Decision)
		assert.Equal(t, WatchEventRiskHigh, res.WatchSegment)
		assert.Equal(t, WatchEventRiskHigh, res.Reasons[0])
	})

	t.Run("bias before trend", func(t *testing.T) {
		in := base
		in.Rings = SetupRings{Event: 40, Bias: 60, Trend: 40, Confidence: 40}
		res := DeriveDecision(in)
		assert.Equal(t, WatchFailsBias, res.WatchSegment)
	})

	t.Run("trend before confidence", func(t *testing.T) {
		in := base
		in.Rings = SetupRings{Event: 40, Bias: 70, Trend: 45, Confidence: 40}
		res := DeriveDecision(in)
		assert.Equal(t, WatchFailsTrend, res.WatchSegment)
	})

	t.Run("confidence last", func(t *testing.T) {
		in := base
		in.Rings = SetupRings{Event: 40, Bias: 70, Trend: 55, Confidence: 50}
		res := DeriveDecision(in)
		assert.Equal(t, WatchFailsConfidence, res.WatchSegment)
	})

	t.Run("nothing failing is other", func(t *testing.T) {
		in := base
		in.Rings = SetupRings{Event: 40, Bias: 70, Trend: 55, Confidence: 60}
		res := DeriveDecision(in)
		assert.Equal(t, WatchOther, res.WatchSegment)
	})

	t.Run("blocked setups carry no segment", func(t *testing.T) {
		in := base
		in.Validity = Validity{IsStale: true}
		res := DeriveDecision(in)
		assert.Equal(t, DecisionBlocked, res.Decision)
		assert.Empty(t, res.WatchSegment)
	})
}

func TestDeriveDecision_PricedSetupsCarryDirection(t *testing.T) {
	t.Run("watch defaults long on upward trend", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:         GradeNoTrade,
			NoTradeReason: "Bias too weak",
			Rings:         SetupRings{Trend: 60},
			HasLevels:     true,
		})
		assert.Equal(t, DecisionWatch, res.Decision)
		assert.Equal(t, DirectionLong, res.Direction)
	})

	t.Run("watch defaults short on downward trend", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:         GradeNoTrade,
			NoTradeReason: "Bias too weak",
			Rings:         SetupRings{Trend: 40},
			HasLevels:     true,
		})
		assert.Equal(t, DirectionShort, res.Direction)
	})

	t.Run("trade without declared direction derives from trend", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{Grade: GradeB, Rings: SetupRings{Trend: 40}, HasLevels: true})
		assert.Equal(t, DecisionTrade, res.Decision)
		assert.Equal(t, DirectionShort, res.Direction)
	})

	t.Run("unpriced setup stays directionless", func(t *testing.T) {
		res := DeriveDecision(DecisionInput{
			Grade:         GradeNoTrade,
			NoTradeReason: "Bias too weak",
			Rings:         SetupRings{Trend: 60},
		})
		assert.Empty(t, res.Direction)
		assert.Contains(t, res.Reasons, "Missing price levels")
	})
}

func TestDeriveDecision_ReasonCap(t *testing.T) {
	res := DeriveDecision(DecisionInput{
		Grade:         GradeNoTrade,
		NoTradeReason: "Bias too weak",
		Class:         market.AssetClassFX,
		Validity:      Validity{IsStale: false},
		HasLevels:     false,
		Rings:         SetupRings{Event: 75},
	})
	assert.LessOrEqual(t, len(res.Reasons), 3)
}
