package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sentra/internal/market"
	"sentra/internal/perception"
)

// Store keeps the macro calendar in a single sqlite file. Events are keyed
// by their upstream id; re-imports overwrite in place.
type Store struct {
	db *sql.DB
}

var _ perception.EventRepository = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("event store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		impact INTEGER NOT NULL DEFAULT 0,
		scheduled_at INTEGER NOT NULL,
		asset_ids TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_events_scheduled ON events(scheduled_at);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) WriteEvents(ctx context.Context, events []market.Event) (perception.WriteResult, error) {
	if len(events) == 0 {
		zero := int64(0)
		return perception.WriteResult{Upserted: &zero, Note: "empty batch"}, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return perception.WriteResult{}, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, title, country, currency, category, source, impact, scheduled_at, asset_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    title=excluded.title,
		    country=excluded.country,
		    currency=excluded.currency,
		    category=excluded.category,
		    source=excluded.source,
		    impact=excluded.impact,
		    scheduled_at=excluded.scheduled_at,
		    asset_ids=excluded.asset_ids`)
	if err != nil {
		_ = tx.Rollback()
		return perception.WriteResult{}, err
	}
	defer stmt.Close()
	count := int64(0)
	for _, ev := range events {
		assetIDs, err := json.Marshal(ev.AssetIDs)
		if err != nil {
			_ = tx.Rollback()
			return perception.WriteResult{}, err
		}
		if _, err := stmt.ExecContext(ctx, ev.ID, ev.Title, ev.Country, ev.Currency, ev.Category,
			ev.Source, ev.Impact, ev.ScheduledAt.UnixMilli(), string(assetIDs)); err != nil {
			_ = tx.Rollback()
			return perception.WriteResult{}, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return perception.WriteResult{}, err
	}
	return perception.WriteResult{Upserted: &count}, nil
}

// UpcomingEvents returns events scheduled inside [from, to] that either
// target the asset explicitly or target no asset at all (global events).
func (s *Store) UpcomingEvents(ctx context.Context, assetID string, from, to time.Time) ([]market.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, country, currency, category, source, impact, scheduled_at, asset_ids
		FROM events WHERE scheduled_at BETWEEN ? AND ? ORDER BY scheduled_at`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []market.Event
	for rows.Next() {
		var ev market.Event
		var ts int64
		var assetIDs string
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Country, &ev.Currency, &ev.Category,
			&ev.Source, &ev.Impact, &ts, &assetIDs); err != nil {
			return nil, err
		}
		ev.ScheduledAt = time.UnixMilli(ts).UTC()
		if err := json.Unmarshal([]byte(assetIDs), &ev.AssetIDs); err != nil {
			ev.AssetIDs = nil
		}
		if len(ev.AssetIDs) > 0 && !containsString(ev.AssetIDs, assetID) {
			continue
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
