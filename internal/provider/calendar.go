package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sentra/internal/logger"
	"sentra/internal/market"
	"sentra/internal/perception"
)

// Calendar loads macro-calendar events from a JSON feed, either an HTTP
// endpoint or a local file path. The feed format is the common
// events-array shape: title, country, currency, impact, date.
type Calendar struct {
	source  string
	client  *http.Client
	assetBy func(event market.Event) []string
}

// NewCalendar builds a calendar reader. assetMapper may be nil; when set
// it assigns asset ids to each parsed event.
func NewCalendar(source string, assetMapper func(market.Event) []string) *Calendar {
	return &Calendar{
		source:  source,
		client:  &http.Client{Timeout: 20 * time.Second},
		assetBy: assetMapper,
	}
}

var impactLevels = map[string]int{
	"low":    1,
	"medium": 2,
	"high":   3,
}

// Load parses the feed into normalized events. Entries without a title or
// a parseable date are skipped with a debug note rather than failing the
// whole import.
func (c *Calendar) Load(ctx context.Context) ([]market.Event, error) {
	raw, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(raw)
	items := parsed
	if events := parsed.Get("events"); events.Exists() {
		items = events
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("calendar feed: expected an array of events")
	}

	var out []market.Event
	skipped := 0
	items.ForEach(func(_, item gjson.Result) bool {
		title := strings.TrimSpace(item.Get("title").String())
		if title == "" {
			title = strings.TrimSpace(item.Get("name").String())
		}
		scheduledAt := parseEventTime(item)
		if title == "" || scheduledAt.IsZero() {
			skipped++
			return true
		}
		ev := market.Event{
			ID:          eventID(item, title, scheduledAt),
			Title:       title,
			Country:     item.Get("country").String(),
			Currency:    item.Get("currency").String(),
			Category:    item.Get("category").String(),
			Source:      "calendar",
			Impact:      parseImpact(item.Get("impact")),
			ScheduledAt: scheduledAt,
		}
		if c.assetBy != nil {
			ev.AssetIDs = c.assetBy(ev)
		}
		out = append(out, ev)
		return true
	})
	if skipped > 0 {
		logger.Debugf("calendar feed: skipped %d malformed entries", skipped)
	}
	return out, nil
}

// Sync loads the feed and writes it into the event repository.
func (c *Calendar) Sync(ctx context.Context, repo perception.EventRepository) (perception.WriteResult, error) {
	events, err := c.Load(ctx)
	if err != nil {
		return perception.WriteResult{}, err
	}
	return repo.WriteEvents(ctx, events)
}

func (c *Calendar) read(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(c.source, "http://") || strings.HasPrefix(c.source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch calendar: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch calendar: status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	raw, err := os.ReadFile(c.source)
	if err != nil {
		return nil, fmt.Errorf("read calendar file: %w", err)
	}
	return raw, nil
}

func parseImpact(v gjson.Result) int {
	if v.Type == gjson.Number {
		n := int(v.Int())
		if n < 0 {
			return 0
		}
		if n > 3 {
			return 3
		}
		return n
	}
	return impactLevels[strings.ToLower(strings.TrimSpace(v.String()))]
}

func parseEventTime(item gjson.Result) time.Time {
	for _, key := range []string{"date", "scheduledAt", "time"} {
		s := strings.TrimSpace(item.Get(key).String())
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	if ts := item.Get("timestamp"); ts.Exists() && ts.Int() > 0 {
		return time.Unix(ts.Int(), 0).UTC()
	}
	return time.Time{}
}

func eventID(item gjson.Result, title string, scheduledAt time.Time) string {
	if id := strings.TrimSpace(item.Get("id").String()); id != "" {
		return id
	}
	return fmt.Sprintf("%s|%s", strings.ToLower(strings.ReplaceAll(title, " ", "-")), scheduledAt.Format("20060102T1504"))
}
