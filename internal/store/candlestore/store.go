package candlestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sentra/internal/market"
	"sentra/internal/perception"
)

// Manifest summarizes one asset@timeframe database file.
type Manifest struct {
	AssetID    string `json:"asset_id"`
	Timeframe  string `json:"timeframe"`
	MinTime    int64  `json:"min_time"`
	MaxTime    int64  `json:"max_time"`
	Rows       int64  `json:"rows"`
	LastSyncAt int64  `json:"last_sync_at"`
	Path       string `json:"path"`
}

// Store keeps one sqlite file per asset and timeframe under a common root.
type Store struct {
	root string

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

var _ perception.CandleRepository = (*Store)(nil)

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("candle store: data root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, dbs: make(map[string]*sql.DB)}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for k, db := range s.dbs {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, k)
	}
	return firstErr
}

func (s *Store) db(assetID string, tf market.Timeframe) (*sql.DB, string, error) {
	if assetID == "" || tf == "" {
		return nil, "", fmt.Errorf("candle store: assetID/timeframe are required")
	}
	key := strings.ToUpper(assetID) + "@" + strings.ToLower(string(tf))
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[key]; ok && db != nil {
		return db, s.dbPath(assetID, tf), nil
	}
	path := s.dbPath(assetID, tf)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, "", err
	}
	s.dbs[key] = db
	return db, path, nil
}

func (s *Store) dbPath(assetID string, tf market.Timeframe) string {
	dir := filepath.Join(s.root, strings.ToUpper(assetID))
	return filepath.Join(dir, strings.ToLower(string(tf))+".db")
}

// WriteCandles upserts bars keyed by open time. Bars sharing an open time
// with an existing row overwrite it, which is what every periodic re-sync
// wants.
func (s *Store) WriteCandles(ctx context.Context, assetID string, tf market.Timeframe, candles []market.Candle) (perception.WriteResult, error) {
	if len(candles) == 0 {
		zero := int64(0)
		return perception.WriteResult{Upserted: &zero, Note: "empty batch"}, nil
	}
	db, _, err := s.db(assetID, tf)
	if err != nil {
		return perception.WriteResult{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return perception.WriteResult{}, err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(open_time) DO UPDATE SET
		    open=excluded.open,
		    high=excluded.high,
		    low=excluded.low,
		    close=excluded.close,
		    volume=excluded.volume`)
	if err != nil {
		_ = tx.Rollback()
		return perception.WriteResult{}, err
	}
	defer stmt.Close()
	count := int64(0)
	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.Timestamp.UnixMilli(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			_ = tx.Rollback()
			return perception.WriteResult{}, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return perception.WriteResult{}, err
	}
	if err := s.refreshManifest(ctx, db, assetID, tf); err != nil {
		return perception.WriteResult{Upserted: &count, Note: "manifest refresh failed"}, err
	}
	return perception.WriteResult{Upserted: &count}, nil
}

// Candles returns bars with open time inside [from, to], oldest first.
func (s *Store) Candles(ctx context.Context, assetID string, tf market.Timeframe, from, to time.Time) ([]market.Candle, error) {
	db, _, err := s.db(assetID, tf)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT open_time, open, high, low, close, volume
		FROM candles WHERE open_time BETWEEN ? AND ? ORDER BY open_time`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []market.Candle
	for rows.Next() {
		var ts int64
		var c market.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestCandles returns the most recent limit bars, oldest first.
func (s *Store) LatestCandles(ctx context.Context, assetID string, tf market.Timeframe, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		return nil, nil
	}
	db, _, err := s.db(assetID, tf)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT open_time, open, high, low, close, volume
		FROM candles ORDER BY open_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []market.Candle
	for rows.Next() {
		var ts int64
		var c market.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) Manifest(ctx context.Context, assetID string, tf market.Timeframe) (Manifest, error) {
	db, path, err := s.db(assetID, tf)
	if err != nil {
		return Manifest{}, err
	}
	row := db.QueryRowContext(ctx, `SELECT asset_id, timeframe, min_time, max_time, rows, last_sync_at FROM manifest WHERE id=1`)
	var m Manifest
	if err := row.Scan(&m.AssetID, &m.Timeframe, &m.MinTime, &m.MaxTime, &m.Rows, &m.LastSyncAt); err != nil {
		return Manifest{}, err
	}
	m.Path = path
	return m, nil
}

func (s *Store) refreshManifest(ctx context.Context, db *sql.DB, assetID string, tf market.Timeframe) error {
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		UPDATE manifest
		SET asset_id = ?,
		    timeframe = ?,
		    min_time = (SELECT COALESCE(MIN(open_time), 0) FROM candles),
		    max_time = (SELECT COALESCE(MAX(open_time), 0) FROM candles),
		    rows = (SELECT COUNT(1) FROM candles),
		    last_sync_at = ?
		WHERE id = 1`, assetID, string(tf), now)
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			open_time  INTEGER PRIMARY KEY,
			open       REAL NOT NULL,
			high       REAL NOT NULL,
			low        REAL NOT NULL,
			close      REAL NOT NULL,
			volume     REAL NOT NULL,
			inserted_at INTEGER NOT NULL DEFAULT (strftime('%s','now') * 1000)
		);`,
		`CREATE TABLE IF NOT EXISTS manifest (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			asset_id TEXT NOT NULL DEFAULT '',
			timeframe TEXT NOT NULL DEFAULT '',
			min_time INTEGER NOT NULL DEFAULT 0,
			max_time INTEGER NOT NULL DEFAULT 0,
			rows INTEGER NOT NULL DEFAULT 0,
			last_sync_at INTEGER NOT NULL DEFAULT 0
		);`,
		`INSERT OR IGNORE INTO manifest (id) VALUES (1);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
