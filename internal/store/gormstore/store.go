package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"sentra/internal/backtest"
	"sentra/internal/engine"
	"sentra/internal/perception"
)

type snapshotModel struct {
	ID          string         `gorm:"column:id;primaryKey"`
	GeneratedAt int64          `gorm:"column:generated_at;index"`
	Version     string         `gorm:"column:version"`
	Payload     datatypes.JSON `gorm:"column:payload"`
	CreatedAt   int64          `gorm:"column:created_at"`
}

func (snapshotModel) TableName() string { return "perception_snapshots" }

type backtestRunModel struct {
	RunKey     string         `gorm:"column:run_key;primaryKey"`
	AssetID    string         `gorm:"column:asset_id;index"`
	FromTime   int64          `gorm:"column:from_time"`
	ToTime     int64          `gorm:"column:to_time"`
	StepHours  float64        `gorm:"column:step_hours"`
	NetPnl     float64        `gorm:"column:net_pnl"`
	Trades     int            `gorm:"column:trades"`
	Payload    datatypes.JSON `gorm:"column:payload"`
	FinishedAt int64          `gorm:"column:finished_at;index"`
}

func (backtestRunModel) TableName() string { return "backtest_runs" }

type biasReadingModel struct {
	ID        uint    `gorm:"column:id;primaryKey;autoIncrement"`
	AssetID   string  `gorm:"column:asset_id;uniqueIndex:uniq_bias_reading"`
	AsOf      int64   `gorm:"column:as_of;uniqueIndex:uniq_bias_reading"`
	Score     float64 `gorm:"column:score"`
	Baseline  float64 `gorm:"column:baseline"`
	CreatedAt int64   `gorm:"column:created_at"`
}

func (biasReadingModel) TableName() string { return "bias_readings" }

// Store persists snapshots and backtest runs as JSON documents with a thin
// queryable envelope.
type Store struct {
	db *gorm.DB
}

var (
	_ perception.SnapshotStore = (*Store)(nil)
	_ perception.BiasProvider  = (*Store)(nil)
	_ backtest.RunStore        = (*Store)(nil)
)

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&snapshotModel{}, &backtestRunModel{}, &biasReadingModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSnapshot upserts by snapshot id, which makes rebuilds at the same
// asOf idempotent.
func (s *Store) SaveSnapshot(ctx context.Context, snap *engine.PerceptionSnapshot) error {
	if snap == nil {
		return fmt.Errorf("gorm store: nil snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	model := snapshotModel{
		ID:          snap.ID,
		GeneratedAt: snap.GeneratedAt.UnixMilli(),
		Version:     snap.Version,
		Payload:     payload,
		CreatedAt:   time.Now().UnixMilli(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"generated_at", "version", "payload",
		}),
	}).Create(&model).Error
}

// LatestSnapshot returns the newest snapshot generated at or before asOf.
// A zero asOf means unbounded.
func (s *Store) LatestSnapshot(ctx context.Context, asOf time.Time) (*engine.PerceptionSnapshot, error) {
	q := s.db.WithContext(ctx)
	if !asOf.IsZero() {
		q = q.Where("generated_at <= ?", asOf.UnixMilli())
	}
	var model snapshotModel
	err := q.Order("generated_at DESC").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(model)
}

// SaveBiasReading records the directional bias for one asset at a point in
// time. Writing the same asset and asOf again overwrites the reading.
func (s *Store) SaveBiasReading(ctx context.Context, assetID string, asOf time.Time, score, baseline float64) error {
	if assetID == "" {
		return fmt.Errorf("gorm store: asset id is required")
	}
	model := biasReadingModel{
		AssetID:   assetID,
		AsOf:      asOf.UTC().UnixMilli(),
		Score:     score,
		Baseline:  baseline,
		CreatedAt: time.Now().UnixMilli(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "baseline"}),
	}).Create(&model).Error
}

// BiasScores serves the reading closest to asOf without looking into the
// future. No reading yet is not an error; the pipeline falls back.
func (s *Store) BiasScores(ctx context.Context, assetID string, asOf time.Time) (*float64, *float64, error) {
	q := s.db.WithContext(ctx).Where("asset_id = ?", assetID)
	if !asOf.IsZero() {
		q = q.Where("as_of <= ?", asOf.UTC().UnixMilli())
	}
	var model biasReadingModel
	err := q.Order("as_of DESC").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &model.Score, &model.Baseline, nil
}

func (s *Store) SnapshotByID(ctx context.Context, id string) (*engine.PerceptionSnapshot, error) {
	var model snapshotModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(model)
}

func decodeSnapshot(model snapshotModel) (*engine.PerceptionSnapshot, error) {
	var snap engine.PerceptionSnapshot
	if err := json.Unmarshal(model.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", model.ID, err)
	}
	return &snap, nil
}

// SaveRun upserts by run key: re-running an identical request replaces the
// stored result instead of duplicating it.
func (s *Store) SaveRun(ctx context.Context, result *backtest.RunResult) error {
	if result == nil {
		return fmt.Errorf("gorm store: nil run result")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	model := backtestRunModel{
		RunKey:     result.RunKey,
		AssetID:    result.AssetID,
		FromTime:   result.From.UnixMilli(),
		ToTime:     result.To.UnixMilli(),
		StepHours:  result.StepHours,
		NetPnl:     result.KPIs.NetPnl,
		Trades:     result.KPIs.Trades,
		Payload:    payload,
		FinishedAt: result.FinishedAt.UnixMilli(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"asset_id", "from_time", "to_time", "step_hours", "net_pnl", "trades", "payload", "finished_at",
		}),
	}).Create(&model).Error
}

func (s *Store) RunByKey(ctx context.Context, runKey string) (*backtest.RunResult, error) {
	var model backtestRunModel
	err := s.db.WithContext(ctx).Where("run_key = ?", runKey).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRun(model)
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]*backtest.RunResult, error) {
	var models []backtestRunModel
	if err := s.db.WithContext(ctx).Order("finished_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*backtest.RunResult, 0, len(models))
	for _, m := range models {
		result, err := decodeRun(m)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

func decodeRun(model backtestRunModel) (*backtest.RunResult, error) {
	var result backtest.RunResult
	if err := json.Unmarshal(model.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", model.RunKey, err)
	}
	return &result, nil
}
