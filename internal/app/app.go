package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sentra/internal/backtest"
	"sentra/internal/config"
	"sentra/internal/engine"
	"sentra/internal/logger"
	"sentra/internal/perception"
	"sentra/internal/provider"
	"sentra/internal/scheduler"
	"sentra/internal/store/candlestore"
	"sentra/internal/store/eventstore"
	"sentra/internal/store/gormstore"
	transporthttp "sentra/internal/transport/http"
)

// App is the assembled application.
type App struct {
	cfg        *config.Config
	candles    *candlestore.Store
	events     *eventstore.Store
	store      *gormstore.Store
	builder    *engine.SnapshotBuilder
	perception *perception.Service
	backtest   *backtest.Service
	calendar   *provider.Calendar
	server     *transporthttp.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	return buildAppWithWire(context.Background(), cfg)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.candles != nil {
		_ = a.candles.Close()
	}
	if a.events != nil {
		_ = a.events.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Serve runs the HTTP API plus the periodic snapshot rebuild until the
// context is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if path := a.cfg.Engine.PlaybookOverrides; path != "" {
		err := config.WatchFile(ctx, path, func() {
			overrides, err := engine.LoadThresholdOverrides(path)
			if err != nil {
				logger.Warnf("reload playbook overrides failed: %v", err)
				return
			}
			a.builder.SetResolver(engine.NewPlaybookResolver(overrides))
			logger.Infof("playbook overrides reloaded")
		})
		if err != nil {
			logger.Warnf("watch playbook overrides failed: %v", err)
		}
	}

	interval := time.Duration(a.cfg.Engine.RebuildIntervalMin) * time.Minute
	sched := scheduler.NewIntervalScheduler(ctx, interval, 0)
	sched.RunImmediately = true
	go sched.Start(func() {
		a.refreshAndRebuild(ctx)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (a *App) refreshAndRebuild(ctx context.Context) {
	if a.calendar != nil && a.events != nil {
		if _, err := a.calendar.Sync(ctx, a.events); err != nil {
			logger.Warnf("calendar sync failed: %v", err)
		}
	}
	if err := a.perception.RefreshMarketData(ctx); err != nil {
		logger.Warnf("market data refresh failed: %v", err)
	}
	if _, err := a.perception.Rebuild(ctx, time.Now().UTC()); err != nil {
		logger.Errorf("snapshot rebuild failed: %v", err)
	}
}

// SnapshotOnce builds a single snapshot and prints it as JSON.
func (a *App) SnapshotOnce(ctx context.Context) error {
	snap, err := a.perception.Rebuild(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// BacktestOnce runs one backtest from a request file and writes the HTML
// report next to the configured report directory.
func (a *App) BacktestOnce(ctx context.Context, requestPath string) error {
	raw, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("read backtest request: %w", err)
	}
	req, err := transporthttp.DecodeRunRequest(raw)
	if err != nil {
		return err
	}
	result, err := a.backtest.Run(ctx, req)
	if err != nil {
		return err
	}
	logger.Infof("backtest done: key=%s trades=%d net=%.4f winRate=%.2f",
		result.RunKey, result.KPIs.Trades, result.KPIs.NetPnl, result.KPIs.WinRate)
	path, err := a.backtest.WriteReportFile(ctx, result.RunKey, a.cfg.Data.ReportDir)
	if err != nil {
		return err
	}
	logger.Infof("report written: %s", path)
	return nil
}
