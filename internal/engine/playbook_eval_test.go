package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func genericBook() Playbook {
	return Playbook{ID: "generic-swing-v0.1", Thresholds: defaultThresholds()}
}

func goldBook() Playbook {
	return Playbook{ID: "gold-swing-v0.2", Thresholds: defaultThresholds(), FullGating: true}
}

func TestEvaluatePlaybook_Default(t *testing.T) {
	t.Run("supportive bias and trend grade B", func(t *testing.T) {
		v := EvaluatePlaybook(genericBook(), EvaluationInput{Rings: SetupRings{Bias: 72, Trend: 50}})
		assert.Equal(t, GradeB, v.Grade)
		assert.Contains(t, v.Rationale[0], "bias & trend supportive")
	})

	t.Run("weak trend names trend", func(t *testing.T) {
		v := EvaluatePlaybook(genericBook(), EvaluationInput{Rings: SetupRings{Bias: 80, Trend: 30}})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.Equal(t, "Trend too weak", v.NoTradeReason)
	})

	t.Run("weak bias names bias", func(t *testing.T) {
		v := EvaluatePlaybook(genericBook(), EvaluationInput{Rings: SetupRings{Bias: 55, Trend: 60}})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.Equal(t, "Bias too weak", v.NoTradeReason)
	})

	t.Run("very low bias with fine trend implies short", func(t *testing.T) {
		v := EvaluatePlaybook(genericBook(), EvaluationInput{Rings: SetupRings{Bias: 30, Trend: 60}})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.Equal(t, "No short alignment (bias implies short)", v.NoTradeReason)
		assert.True(t, v.AlignmentMissing)
	})
}

func TestEvaluatePlaybook_FullGating(t *testing.T) {
	strong := SetupRings{Bias: 85, Trend: 60, Sentiment: 60, Orderflow: 50}

	t.Run("execution critical event blocks everything", func(t *testing.T) {
		v := EvaluatePlaybook(goldBook(), EvaluationInput{
			Rings:         strong,
			EventModifier: &EventModifier{Classification: EventExecutionCritical},
		})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.Equal(t, "Execution-critical event window", v.NoTradeReason)
	})

	t.Run("negative orderflow excludes", func(t *testing.T) {
		rings := strong
		rings.Orderflow = 25
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: rings})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.Equal(t, "Orderflow negative", v.NoTradeReason)
	})

	t.Run("low signal quality excludes when reported", func(t *testing.T) {
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: strong, SignalQuality: 30, HasSignalQuality: true})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.Equal(t, "Signal quality too low", v.NoTradeReason)
	})

	t.Run("unreported signal quality is not a gate", func(t *testing.T) {
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: strong})
		assert.NotEqual(t, GradeNoTrade, v.Grade)
	})

	t.Run("grade A needs a strength trigger", func(t *testing.T) {
		rings := SetupRings{Bias: 85, Trend: 58, Sentiment: 60, Orderflow: 45}
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: rings})
		assert.Equal(t, GradeB, v.Grade)

		rings.Bias = 92
		v = EvaluatePlaybook(goldBook(), EvaluationInput{Rings: rings})
		assert.Equal(t, GradeA, v.Grade)
		assert.Len(t, v.Rationale, 2)
	})

	t.Run("strong orderflow is a valid trigger", func(t *testing.T) {
		rings := SetupRings{Bias: 82, Trend: 58, Sentiment: 60, Orderflow: 60}
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: rings})
		assert.Equal(t, GradeA, v.Grade)
	})

	t.Run("weak sentiment caps at B", func(t *testing.T) {
		rings := SetupRings{Bias: 92, Trend: 70, Sentiment: 40, Orderflow: 60}
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: rings})
		assert.Equal(t, GradeB, v.Grade)
	})

	t.Run("implied short carries through gating", func(t *testing.T) {
		v := EvaluatePlaybook(goldBook(), EvaluationInput{Rings: SetupRings{Bias: 35, Trend: 60}})
		assert.Equal(t, GradeNoTrade, v.Grade)
		assert.True(t, v.AlignmentMissing)
	})
}
