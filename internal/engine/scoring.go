package engine

import (
	"math"

	"sentra/internal/market"
)

// AggregateConfidence blends the three primary ring scores into the single
// confidence score. Event carries the largest weight; bias and sentiment
// split the rest evenly.
func AggregateConfidence(event, bias, sentiment float64) float64 {
	return clamp(0.4*event+0.3*bias+0.3*sentiment, 0, 100)
}

// AggregateConfidenceForProfile applies the horizon-specific input
// decomposition before the fixed blend. Swing horizons lean the event input
// toward trend structure; intraday horizons lean the sentiment input toward
// orderflow energy. The blend weights themselves never change per profile.
func AggregateConfidenceForProfile(profile market.Profile, rings SetupRings) float64 {
	event := rings.Event
	sentiment := rings.Sentiment
	switch profile {
	case market.ProfileSwing, market.ProfilePosition:
		event = clamp(0.7*rings.Event+0.3*rings.Trend, 0, 100)
	case market.ProfileIntraday, market.ProfileScalp:
		sentiment = clamp(0.7*rings.Sentiment+0.3*rings.Orderflow, 0, 100)
	}
	return AggregateConfidence(event, rings.Bias, sentiment)
}

// BalanceScore measures how evenly the primary rings agree: 100 means the
// three scores are identical, and dispersion subtracts one point per point
// of standard deviation.
func BalanceScore(event, bias, sentiment float64) float64 {
	return clamp(100-stddev([]float64{event, bias, sentiment}), 0, 100)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// SetupScoreInput carries the optional per-dimension components of the
// composite setup score. Absent components drop out of the weighting
// instead of dragging the average down.
type SetupScoreInput struct {
	Trend      *float64
	Bias       *float64
	Momentum   *float64
	Volatility *float64
	Pattern    *float64
}

type SetupScoreBreakdown struct {
	Total      float64  `json:"total"`
	Components []string `json:"components,omitempty"`
}

var setupScoreWeights = []struct {
	name   string
	weight float64
	pick   func(SetupScoreInput) *float64
}{
	{"trend", 0.4, func(in SetupScoreInput) *float64 { return in.Trend }},
	{"bias", 0.2, func(in SetupScoreInput) *float64 { return in.Bias }},
	{"momentum", 0.2, func(in SetupScoreInput) *float64 { return in.Momentum }},
	{"volatility", 0.1, func(in SetupScoreInput) *float64 { return in.Volatility }},
	{"pattern", 0.1, func(in SetupScoreInput) *float64 { return in.Pattern }},
}

// ComputeSetupScore takes the weighted average over whichever components are
// present, renormalizing the weights so a partial input still lands on the
// 0..100 scale. No components at all means neutral.
func ComputeSetupScore(in SetupScoreInput) SetupScoreBreakdown {
	sum := 0.0
	weightSum := 0.0
	var components []string
	for _, w := range setupScoreWeights {
		v := finite(w.pick(in))
		if v == nil {
			continue
		}
		sum += w.weight * clamp(*v, 0, 100)
		weightSum += w.weight
		components = append(components, w.name)
	}
	if weightSum == 0 {
		return SetupScoreBreakdown{Total: neutralScore}
	}
	return SetupScoreBreakdown{
		Total:      clamp(math.Round(sum/weightSum), 0, 100),
		Components: components,
	}
}

// GradeFromScore is the coarse fallback mapping used when no playbook
// verdict is available, e.g. for backtest summaries over raw scores.
func GradeFromScore(score float64) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 75:
		return "B"
	case score >= 65:
		return "C"
	default:
		return "D"
	}
}
