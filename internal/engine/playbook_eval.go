package engine

import "fmt"

// EvaluationInput is everything a playbook grades on. SignalQuality is only
// consulted when HasSignalQuality is set; upstream sources do not always
// report it.
type EvaluationInput struct {
	Rings            SetupRings
	SignalQuality    float64
	HasSignalQuality bool
	EventModifier    *EventModifier
}

// PlaybookVerdict is the graded outcome plus the rationale trail. A
// NO_TRADE verdict names exactly one failing dimension in NoTradeReason;
// AlignmentMissing marks the structural case where the bias reading implies
// the opposite direction rather than a merely weak one.
type PlaybookVerdict struct {
	Grade            Grade
	Rationale        []string
	NoTradeReason    string
	AlignmentMissing bool
}

// EvaluatePlaybook grades one scored setup against its playbook gates.
// Playbooks with full gating run the hard-exclusion ladder first and can
// award grade A; the default evaluation only separates B from NO_TRADE.
func EvaluatePlaybook(pb Playbook, in EvaluationInput) PlaybookVerdict {
	if pb.FullGating {
		return evaluateFullGating(pb.Thresholds, in)
	}
	return evaluateDefault(pb.Thresholds, in)
}

func evaluateDefault(th PlaybookThresholds, in EvaluationInput) PlaybookVerdict {
	r := in.Rings
	if r.Bias >= th.BiasMin && r.Trend >= th.TrendMin {
		return PlaybookVerdict{
			Grade:     GradeB,
			Rationale: []string{"Default alignment: bias & trend supportive"},
		}
	}
	if r.Trend < th.TrendMin {
		return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Trend too weak"}
	}
	if r.Bias < 40 {
		return PlaybookVerdict{
			Grade:            GradeNoTrade,
			NoTradeReason:    "No short alignment (bias implies short)",
			AlignmentMissing: true,
		}
	}
	return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Bias too weak"}
}

func evaluateFullGating(th PlaybookThresholds, in EvaluationInput) PlaybookVerdict {
	r := in.Rings

	if in.EventModifier != nil && in.EventModifier.Classification == EventExecutionCritical {
		return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Execution-critical event window"}
	}
	if r.Bias < th.BiasMin {
		if r.Bias < 40 && r.Trend >= th.TrendMin {
			return PlaybookVerdict{
				Grade:            GradeNoTrade,
				NoTradeReason:    "No short alignment (bias implies short)",
				AlignmentMissing: true,
			}
		}
		return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Bias too weak"}
	}
	if r.Trend < th.TrendMin {
		return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Trend too weak"}
	}
	if r.Orderflow < th.OrderflowFloor {
		return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Orderflow negative"}
	}
	if in.HasSignalQuality && in.SignalQuality < th.QualityFloor {
		return PlaybookVerdict{Grade: GradeNoTrade, NoTradeReason: "Signal quality too low"}
	}

	if r.Bias >= th.ABiasMin && r.Trend >= th.ATrendMin && r.Sentiment >= th.SentimentFloor {
		if trigger, ok := strengthTrigger(th, in); ok {
			return PlaybookVerdict{
				Grade: GradeA,
				Rationale: []string{
					fmt.Sprintf("Strong alignment: bias %.0f, trend %.0f", r.Bias, r.Trend),
					trigger,
				},
			}
		}
	}
	return PlaybookVerdict{
		Grade:     GradeB,
		Rationale: []string{"Solid alignment: bias & trend supportive, orderflow not negative"},
	}
}

func strengthTrigger(th PlaybookThresholds, in EvaluationInput) (string, bool) {
	r := in.Rings
	switch {
	case r.Bias >= th.StrongBias:
		return fmt.Sprintf("Bias strength %.0f", r.Bias), true
	case r.Trend >= th.StrongTrend:
		return fmt.Sprintf("Trend strength %.0f", r.Trend), true
	case r.Orderflow >= th.StrongOrderflow:
		return fmt.Sprintf("Orderflow support %.0f", r.Orderflow), true
	case in.HasSignalQuality && in.SignalQuality >= th.StrongQuality:
		return fmt.Sprintf("Signal quality %.0f", in.SignalQuality), true
	default:
		return "", false
	}
}
