package config

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8089"
	}
	if c.Data.CandleRoot == "" {
		c.Data.CandleRoot = "data/candles"
	}
	if c.Data.EventDB == "" {
		c.Data.EventDB = "data/events.db"
	}
	if c.Data.StoreDB == "" {
		c.Data.StoreDB = "data/sentra.db"
	}
	if c.Data.ReportDir == "" {
		c.Data.ReportDir = "data/reports"
	}
	if c.Binance.SentimentPeriod == "" {
		c.Binance.SentimentPeriod = "1h"
	}
	if c.Engine.CacheCapacity <= 0 {
		c.Engine.CacheCapacity = 50
	}
	if c.Engine.RebuildIntervalMin <= 0 {
		c.Engine.RebuildIntervalMin = 60
	}
}
