package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	seen := make(map[string]bool, len(c.Universe))
	for i, a := range c.Universe {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return fmt.Errorf("universe[%d]: id is required", i)
		}
		if strings.TrimSpace(a.Symbol) == "" {
			return fmt.Errorf("universe[%d] (%s): symbol is required", i, id)
		}
		if seen[id] {
			return fmt.Errorf("universe: duplicate asset id %q", id)
		}
		seen[id] = true
	}
	if c.Engine.CacheCapacity < 0 {
		return fmt.Errorf("engine.cache_capacity cannot be negative")
	}
	return nil
}
