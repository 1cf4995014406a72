package config

import (
	"strings"

	"sentra/internal/engine"
	"sentra/internal/market"
	"sentra/internal/perception"
)

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DataConfig struct {
	CandleRoot string `toml:"candle_root"`
	EventDB    string `toml:"event_db"`
	StoreDB    string `toml:"store_db"`
	ReportDir  string `toml:"report_dir"`
}

type BinanceConfig struct {
	Enabled         bool   `toml:"enabled"`
	BaseURL         string `toml:"base_url"`
	SentimentPeriod string `toml:"sentiment_period"`
}

type CalendarConfig struct {
	Source string `toml:"source"`
}

type EngineConfig struct {
	CacheCapacity      int    `toml:"cache_capacity"`
	PlaybookOverrides  string `toml:"playbook_overrides"`
	RebuildIntervalMin int    `toml:"rebuild_interval_min"`
}

type AssetConfig struct {
	ID        string `toml:"id"`
	Symbol    string `toml:"symbol"`
	Name      string `toml:"name"`
	Class     string `toml:"class"`
	Profile   string `toml:"profile"`
	Direction string `toml:"direction"`
}

type Config struct {
	Log      LogConfig     `toml:"log"`
	Server   ServerConfig  `toml:"server"`
	Data     DataConfig    `toml:"data"`
	Binance  BinanceConfig `toml:"binance"`
	Calendar CalendarConfig `toml:"calendar"`
	Engine   EngineConfig  `toml:"engine"`
	Universe []AssetConfig `toml:"universe"`
}

// ToUniverse converts the configured asset list into watchlist entries.
// Unknown classes stay unknown so the playbook resolver can still match on
// symbol shape.
func (c *Config) ToUniverse() []perception.UniverseEntry {
	out := make([]perception.UniverseEntry, 0, len(c.Universe))
	for _, a := range c.Universe {
		out = append(out, perception.UniverseEntry{
			Asset: market.Asset{
				ID:     a.ID,
				Symbol: a.Symbol,
				Name:   a.Name,
				Class:  parseClass(a.Class),
			},
			Profile:   market.Profile(strings.ToUpper(strings.TrimSpace(a.Profile))),
			Direction: engine.Direction(strings.ToLower(strings.TrimSpace(a.Direction))),
		})
	}
	return out
}

func parseClass(raw string) market.AssetClass {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "commodity", "gold":
		return market.AssetClassCommodity
	case "index":
		return market.AssetClassIndex
	case "crypto":
		return market.AssetClassCrypto
	case "fx", "forex":
		return market.AssetClassFX
	case "equity", "stock":
		return market.AssetClassEquity
	default:
		return market.AssetClassUnknown
	}
}
