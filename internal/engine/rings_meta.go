package engine

import "time"

// RingMetaInput describes what was actually available when the rings were
// computed, so every ring can carry honest provenance next to its score.
type RingMetaInput struct {
	Source    RingSource
	Timeframe string
	AsOf      time.Time
	IsStale   bool
	Notes     []string
}

// BuildRingMeta derives per-ring quality tags from the source shape. A ring
// backed by its own measured input is live, one reconstructed from sibling
// inputs is derived, and one that fell through to neutral is a fallback.
// Staleness downgrades everything regardless of the input shape.
func BuildRingMeta(in RingMetaInput) SetupRingMeta {
	asOf := ""
	if !in.AsOf.IsZero() {
		asOf = in.AsOf.UTC().Format(time.RFC3339)
	}
	mk := func(q RingQuality) RingMeta {
		if in.IsStale {
			q = QualityStale
		}
		return RingMeta{Quality: q, Timeframe: in.Timeframe, AsOf: asOf, Notes: in.Notes}
	}

	src := in.Source
	hasBreakdown := src.Breakdown != nil

	trend := QualityFallback
	if src.TrendScore != nil || (hasBreakdown && src.Breakdown.Trend != nil) {
		trend = QualityLive
	}

	event := QualityFallback
	switch {
	case hasBreakdown:
		event = QualityLive
	case src.EventScore != nil:
		event = QualityHeuristic
	}

	bias := QualityFallback
	if src.BiasScoreAtTime != nil || src.BiasScore != nil {
		bias = QualityLive
	}

	sentiment := QualityFallback
	switch {
	case hasBreakdown:
		sentiment = QualityLive
	case src.SentimentScore != nil:
		sentiment = QualityHeuristic
	case src.BiasScoreAtTime != nil || src.BiasScore != nil:
		sentiment = QualityDerived
	}

	orderflow := QualityFallback
	switch {
	case hasBreakdown:
		orderflow = QualityLive
	case src.BalanceScore != nil:
		orderflow = QualityHeuristic
	}

	confidence := QualityDerived
	if !hasBreakdown && src.Confidence == nil &&
		src.EventScore == nil && src.BiasScore == nil && src.BiasScoreAtTime == nil &&
		src.SentimentScore == nil && src.BalanceScore == nil {
		confidence = QualityFallback
	}

	confMeta := mk(confidence)
	confMeta.Notes = append(append([]string(nil), confMeta.Notes...), NoteMetaAggregate)

	return SetupRingMeta{
		Trend:      mk(trend),
		Event:      mk(event),
		Bias:       mk(bias),
		Sentiment:  mk(sentiment),
		Orderflow:  mk(orderflow),
		Confidence: confMeta,
	}
}
