package engine

import (
	"github.com/shopspring/decimal"
)

// Levels are the executable price levels attached to a tradable setup.
type Levels struct {
	EntryZone  PriceRange
	StopLoss   float64
	TakeProfit float64
	RiskReward RiskReward
}

type LevelsInput struct {
	Direction       Direction
	LastPrice       float64
	VolatilityScore float64
}

// Volatility widens both the risk budget and the entry zone. The reward leg
// is always sized at twice the risk leg, so the published RRR stays at 2
// while absolute distances scale with regime.
func riskPercent(volatility float64) float64 {
	return 0.8 + clamp(volatility, 0, 100)/100*1.7
}

func volatilityLabel(volatility float64) string {
	switch {
	case volatility < 35:
		return "low"
	case volatility < 65:
		return "moderate"
	default:
		return "high"
	}
}

// ComputeLevels derives entry zone, stop and target from the last price and
// the volatility regime. Directionless or unpriced setups carry no levels.
func ComputeLevels(in LevelsInput) (Levels, bool) {
	if in.LastPrice <= 0 {
		return Levels{}, false
	}
	if in.Direction != DirectionLong && in.Direction != DirectionShort {
		return Levels{}, false
	}

	price := decimal.NewFromFloat(in.LastPrice)
	riskPct := decimal.NewFromFloat(riskPercent(in.VolatilityScore))
	rewardPct := riskPct.Mul(decimal.NewFromInt(2))
	hundred := decimal.NewFromInt(100)

	riskDist := price.Mul(riskPct).Div(hundred)
	rewardDist := price.Mul(rewardPct).Div(hundred)
	zoneDist := riskDist.Mul(decimal.NewFromFloat(0.3))

	var stop, target decimal.Decimal
	if in.Direction == DirectionLong {
		stop = price.Sub(riskDist)
		target = price.Add(rewardDist)
	} else {
		stop = price.Add(riskDist)
		target = price.Sub(rewardDist)
	}

	lower := price.Sub(zoneDist)
	upper := price.Add(zoneDist)

	riskPctF, _ := riskPct.Round(4).Float64()
	rewardPctF, _ := rewardPct.Round(4).Float64()
	stopF, _ := stop.Round(6).Float64()
	targetF, _ := target.Round(6).Float64()
	lowerF, _ := lower.Round(6).Float64()
	upperF, _ := upper.Round(6).Float64()

	return Levels{
		EntryZone:  PriceRange{From: lowerF, To: upperF},
		StopLoss:   stopF,
		TakeProfit: targetF,
		RiskReward: RiskReward{
			RRR:             2,
			RiskPercent:     riskPctF,
			RewardPercent:   rewardPctF,
			VolatilityLabel: volatilityLabel(in.VolatilityScore),
		},
	}, true
}
