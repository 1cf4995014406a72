package engine

import "math"

// Breakdown is the structured per-factor decomposition of a market snapshot.
// Nil fields mean "not measured", which is different from zero.
type Breakdown struct {
	Trend      *float64
	Momentum   *float64
	Volatility *float64
	Pattern    *float64
}

// RingSource is the canonical, normalized input contract of the ring
// computer. All optional signals are explicit pointers; normalization of
// heterogeneous upstream shapes happens once at the pipeline boundary,
// never inside the scoring code.
type RingSource struct {
	Breakdown       *Breakdown
	PatternType     string
	EventScore      *float64
	BiasScore       *float64
	BiasScoreAtTime *float64
	SentimentScore  *float64
	BalanceScore    *float64
	OrderflowMode   string
	Confidence      *float64
	Direction       Direction
	TrendScore      *float64
}

const neutralScore = 50

var patternOffsets = map[string]float64{
	"breakout":           90,
	"liquidity grab":     80,
	"range rejection":    70,
	"pullback":           60,
	"trend continuation": 55,
}

var orderflowModeDeltas = map[string]float64{
	"trending":       5,
	"choppy":         -5,
	"mean-reversion": 0,
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampPercent(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return neutralScore
	}
	return clamp(math.Round(*v), 0, 100)
}

// ComputeRingsFromSource turns one normalized source into the five named
// ring scores. Every ring lands in [0,100]; a fully empty source is neutral.
func ComputeRingsFromSource(src RingSource) SetupRings {
	trend := resolveTrendScore(src)
	event := resolveEventScore(src)
	bias := resolveBiasScore(src)
	sentiment := resolveSentimentScore(src)
	orderflow := resolveOrderflowScore(src)
	confidence := resolveConfidenceRing(src, event, bias, sentiment)
	return SetupRings{
		Trend:      trend,
		Event:      event,
		Bias:       bias,
		Sentiment:  sentiment,
		Orderflow:  orderflow,
		Confidence: confidence,
	}
}

func resolveTrendScore(src RingSource) float64 {
	if src.TrendScore != nil && !math.IsNaN(*src.TrendScore) {
		return clampPercent(src.TrendScore)
	}
	if src.Breakdown != nil {
		return clampPercent(src.Breakdown.Trend)
	}
	return neutralScore
}

// Volatility only contributes above its calm zone; the slope doubles so a
// vol reading of 90 maps to an event contribution of 100.
func volComponent(volatility *float64) float64 {
	volNorm := clampPercent(volatility)
	if volNorm <= 40 {
		return 0
	}
	return clamp(math.Round((volNorm-40)*2), 0, 100)
}

// Divergence between trend and momentum raises event risk even at moderate
// volatility; trend strength away from neutral adds the rest.
func regimeComponent(trend, momentum *float64) float64 {
	trendNorm := clampPercent(trend)
	momentumNorm := clampPercent(momentum)
	trendStrength := math.Abs(trendNorm - neutralScore)
	divergence := math.Abs(trendNorm - momentumNorm)
	return clamp(math.Round(0.5*trendStrength+0.5*divergence), 0, 100)
}

func patternComponent(breakdown *Breakdown, patternType string) float64 {
	if patternType != "" {
		if mapped, ok := patternOffsets[lowercase(patternType)]; ok {
			return mapped
		}
	}
	if breakdown != nil && breakdown.Pattern != nil {
		return clamp(math.Round(math.Max(30, math.Min(80, *breakdown.Pattern))), 0, 100)
	}
	return neutralScore
}

func macroComponent(eventScore *float64) float64 {
	return clampPercent(eventScore)
}

func resolveEventScore(src RingSource) float64 {
	if src.Breakdown != nil {
		b := src.Breakdown
		score := 0.3*volComponent(b.Volatility) +
			0.25*regimeComponent(b.Trend, b.Momentum) +
			0.25*patternComponent(b, src.PatternType) +
			0.2*macroComponent(src.EventScore)
		return clamp(math.Round(score), 0, 100)
	}
	if src.EventScore != nil && !math.IsNaN(*src.EventScore) {
		score := 0.6*macroComponent(src.EventScore) + 0.4*patternComponent(nil, src.PatternType)
		return clamp(math.Round(score), 0, 100)
	}
	return neutralScore
}

func resolveBiasScore(src RingSource) float64 {
	atTime := finite(src.BiasScoreAtTime)
	baseline := finite(src.BiasScore)
	switch {
	case atTime != nil && baseline != nil:
		combined := 0.7**atTime + 0.3**baseline
		return clampPercent(&combined)
	case atTime != nil:
		return clampPercent(atTime)
	case baseline != nil:
		return clampPercent(baseline)
	default:
		return neutralScore
	}
}

func directionComponent(dir Direction) float64 {
	switch dir {
	case DirectionLong:
		return 55
	case DirectionShort:
		return 45
	default:
		return neutralScore
	}
}

func biasComponentValue(src RingSource) float64 {
	bias := src.BiasScoreAtTime
	if bias == nil {
		bias = src.BiasScore
	}
	biasNorm := clampPercent(bias)
	return clamp(math.Round(neutralScore+0.6*(biasNorm-neutralScore)), 0, 100)
}

func energyComponentValue(breakdown *Breakdown) float64 {
	var trend, momentum *float64
	if breakdown != nil {
		trend, momentum = breakdown.Trend, breakdown.Momentum
	}
	energy := (2*clampPercent(momentum) + clampPercent(trend)) / 3
	return clamp(math.Round(neutralScore+0.5*(energy-neutralScore)), 0, 100)
}

func macroComponentValue(eventScore *float64) float64 {
	macroNorm := clampPercent(eventScore)
	return clamp(math.Round(neutralScore+0.2*(macroNorm-neutralScore)), 0, 100)
}

func resolveSentimentScore(src RingSource) float64 {
	if src.Breakdown != nil {
		raw := 0.2*directionComponent(src.Direction) +
			0.4*biasComponentValue(src) +
			0.3*energyComponentValue(src.Breakdown) +
			0.1*macroComponentValue(src.EventScore)
		return clamp(math.Round(raw), 0, 100)
	}
	if s := finite(src.SentimentScore); s != nil {
		raw := 0.6*clampPercent(s) +
			0.25*biasComponentValue(src) +
			0.1*directionComponent(src.Direction) +
			0.05*macroComponentValue(src.EventScore)
		return clamp(math.Round(raw), 0, 100)
	}
	if src.BiasScoreAtTime != nil || src.BiasScore != nil {
		raw := 0.5*biasComponentValue(src) +
			0.3*directionComponent(src.Direction) +
			0.2*macroComponentValue(src.EventScore)
		return clamp(math.Round(raw), 0, 100)
	}
	return neutralScore
}

func resolveOrderflowScore(src RingSource) float64 {
	if src.Breakdown != nil {
		energy := (2*clampPercent(src.Breakdown.Momentum) + clampPercent(src.Breakdown.Volatility)) / 3
		base := clamp(math.Round(neutralScore+0.6*(energy-neutralScore)), 0, 100)
		tilt := 0.0
		switch src.Direction {
		case DirectionLong:
			tilt = 5
		case DirectionShort:
			tilt = -5
		}
		modeDelta := 0.0
		if src.OrderflowMode != "" {
			modeDelta = orderflowModeDeltas[lowercase(src.OrderflowMode)]
		}
		return clamp(math.Round(base+tilt+modeDelta), 0, 100)
	}
	if b := finite(src.BalanceScore); b != nil {
		flow := clampPercent(b)
		return clamp(math.Round(neutralScore+0.4*(flow-neutralScore)), 0, 100)
	}
	return neutralScore
}

// The confidence ring is the weighted aggregation of the three primary
// rings; a precomputed upstream confidence is blended in when the source
// carries no structured breakdown of its own.
func resolveConfidenceRing(src RingSource, event, bias, sentiment float64) float64 {
	aggregated := AggregateConfidence(event, bias, sentiment)
	if src.Breakdown != nil {
		return aggregated
	}
	if pre := finite(src.Confidence); pre != nil {
		combined := 0.6*clampPercent(pre) + 0.4*aggregated
		return clamp(math.Round(combined), 0, 100)
	}
	return aggregated
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func lowercase(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
