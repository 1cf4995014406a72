package provider

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"sentra/internal/logger"
	"sentra/internal/perception"
)

// BinanceSentiment derives a 0..100 sentiment score from futures funding
// and open interest. Positive funding means longs pay to stay in, so a
// crowded long side pushes the score up; growing open interest amplifies
// whatever the funding side says.
type BinanceSentiment struct {
	source *Binance
	period string
}

var _ perception.SentimentProvider = (*BinanceSentiment)(nil)

func NewBinanceSentiment(source *Binance, period string) *BinanceSentiment {
	if period == "" {
		period = "1h"
	}
	return &BinanceSentiment{source: source, period: period}
}

// SentimentScore returns nil without error for symbols the exchange does
// not list, so the pipeline can fall back instead of failing the build.
func (s *BinanceSentiment) SentimentScore(ctx context.Context, symbol string) (*float64, error) {
	if s == nil || s.source == nil {
		return nil, fmt.Errorf("sentiment provider not initialized")
	}
	exchangeSymbol := normalizeBinanceSymbol(symbol)
	if !strings.HasSuffix(exchangeSymbol, "USDT") {
		return nil, nil
	}

	premium, err := s.source.client.NewPremiumIndexService().Symbol(exchangeSymbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch funding rate %s: %w", exchangeSymbol, err)
	}
	funding, ok := fundingFor(premium, exchangeSymbol)
	if !ok {
		logger.Debugf("no funding rate for %s", exchangeSymbol)
		return nil, nil
	}

	oiChangePct := 0.0
	stats, err := s.source.client.NewOpenInterestStatisticsService().
		Symbol(exchangeSymbol).
		Period(s.period).
		Limit(2).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch open interest %s: %w", exchangeSymbol, err)
	}
	if len(stats) >= 2 && stats[len(stats)-2] != nil && stats[len(stats)-1] != nil {
		prev := parseFloat(stats[len(stats)-2].SumOpenInterest)
		cur := parseFloat(stats[len(stats)-1].SumOpenInterest)
		if prev > 0 {
			oiChangePct = (cur - prev) / prev * 100
		}
	}

	score := fundingOiScore(funding, oiChangePct)
	return &score, nil
}

func fundingFor(entries []*futures.PremiumIndex, symbol string) (float64, bool) {
	for _, entry := range entries {
		if entry != nil && strings.EqualFold(entry.Symbol, symbol) {
			return parseFloat(entry.LastFundingRate), true
		}
	}
	if len(entries) > 0 && entries[0] != nil {
		return parseFloat(entries[0].LastFundingRate), true
	}
	return 0, false
}

// fundingOiScore maps the two readings onto 0..100. One basis point of
// funding moves the score five points and one percent of open interest
// growth moves it 1.5 points, each leg saturating well before the
// exchange's extremes.
func fundingOiScore(funding, oiChangePct float64) float64 {
	fundingComp := clampRange(funding*50000, -20, 20)
	oiComp := clampRange(oiChangePct*1.5, -15, 15)
	return math.Round(clampRange(50+fundingComp+oiComp, 0, 100))
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
