package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"sentra/internal/market"
	"sentra/internal/perception"
)

const maxKlineLimit = 1500

var binanceIntervals = map[market.Timeframe]string{
	market.Timeframe15m: "15m",
	market.Timeframe1H:  "1h",
	market.Timeframe4H:  "4h",
	market.Timeframe1D:  "1d",
	market.Timeframe1W:  "1w",
}

// BinanceConfig configures the futures REST client.
type BinanceConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// Binance serves normalized candles from the futures klines endpoint.
type Binance struct {
	client *futures.Client
}

var _ perception.MarketDataProvider = (*Binance)(nil)

func NewBinance(cfg BinanceConfig) *Binance {
	client := futures.NewClient("", "")
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Binance{client: client}
}

// FetchCandles pulls up to limit bars for the symbol at the requested
// timeframe, oldest first.
func (b *Binance) FetchCandles(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]market.Candle, error) {
	interval, ok := binanceIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", tf)
	}
	symbol = normalizeBinanceSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	kls, err := b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, k := range kls {
		if k == nil {
			continue
		}
		out = append(out, market.Candle{
			Timestamp: time.UnixMilli(k.OpenTime).UTC(),
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	return out, nil
}

// normalizeBinanceSymbol strips separators so "BTC-USD" and "BTC/USDT"
// become exchange symbols.
func normalizeBinanceSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.NewReplacer("-", "", "/", "", "=X", "").Replace(s)
	if strings.HasSuffix(s, "USD") && !strings.HasSuffix(s, "USDT") {
		s += "T"
	}
	return s
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
