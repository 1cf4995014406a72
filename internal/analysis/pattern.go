package analysis

import (
	"github.com/markcheno/go-talib"
)

const (
	emaFastPeriod = 9
	emaSlowPeriod = 21
	rsiPeriod     = 14

	minBars = 35
)

// PatternSignal names the dominant price structure of a close series and
// scores how pronounced it is on the 0..100 scale.
type PatternSignal struct {
	Type  string
	Score float64
}

// DetectPattern classifies the series from EMA structure and RSI posture.
// Too few bars for stable indicator values yields no signal.
func DetectPattern(closes []float64) (PatternSignal, bool) {
	if len(closes) < minBars {
		return PatternSignal{}, false
	}
	emaFast := talib.Ema(closes, emaFastPeriod)
	emaSlow := talib.Ema(closes, emaSlowPeriod)
	rsi := talib.Rsi(closes, rsiPeriod)

	last := len(closes) - 1
	price := closes[last]
	fast := emaFast[last]
	slow := emaSlow[last]
	r := rsi[last]

	bullStack := price > fast && fast > slow

	switch {
	case bullStack && r >= 60:
		return PatternSignal{Type: "breakout", Score: clampScore(50 + (r - 50))}, true
	case fast > slow && r >= 45:
		return PatternSignal{Type: "trend continuation", Score: clampScore(45 + (r - 45))}, true
	case fast > slow && r < 45:
		return PatternSignal{Type: "pullback", Score: clampScore(40 + (45 - r))}, true
	case fast < slow && r >= 55:
		return PatternSignal{Type: "range rejection", Score: clampScore(40 + (r - 55))}, true
	default:
		return PatternSignal{}, false
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
