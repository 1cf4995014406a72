package market

import "time"

// Timeframe keys follow the provider convention used across the pipeline.
type Timeframe string

const (
	Timeframe15m Timeframe = "15m"
	Timeframe1H  Timeframe = "1H"
	Timeframe4H  Timeframe = "4H"
	Timeframe1D  Timeframe = "1D"
	Timeframe1W  Timeframe = "1W"
)

// Candle is one normalized OHLCV bar. Timestamps are bar-open times.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type AssetClass string

const (
	AssetClassCommodity AssetClass = "commodity"
	AssetClassIndex     AssetClass = "index"
	AssetClassCrypto    AssetClass = "crypto"
	AssetClassFX        AssetClass = "fx"
	AssetClassEquity    AssetClass = "equity"
	AssetClassUnknown   AssetClass = "unknown"
)

// Profile is the trading horizon a setup is scored for.
type Profile string

const (
	ProfileScalp    Profile = "SCALP"
	ProfileIntraday Profile = "INTRADAY"
	ProfileSwing    Profile = "SWING"
	ProfilePosition Profile = "POSITION"
)

type Asset struct {
	ID     string     `json:"id"`
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	Class  AssetClass `json:"class"`
}

// Event is a macro-calendar entry relevant to one or more assets.
// Impact is a 0..3 scale, 3 being execution critical.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Country     string    `json:"country,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Category    string    `json:"category,omitempty"`
	Source      string    `json:"source,omitempty"`
	Impact      int       `json:"impact"`
	ScheduledAt time.Time `json:"scheduledAt"`
	AssetIDs    []string  `json:"assetIds,omitempty"`
}
