package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"sentra/internal/app"
	"sentra/internal/config"
	"sentra/internal/logger"
)

func main() {
	var (
		cfgPath     = flag.String("config", defaultConfigPath(), "path to the yaml config file")
		mode        = flag.String("mode", "serve", "run mode: serve, snapshot or backtest")
		requestPath = flag.String("request", "", "backtest request file (mode=backtest)")
		logPath     = flag.String("log", "", "optional log file, in addition to stdout")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	logFile, err := setupLogOutput(*logPath)
	if err != nil {
		log.Fatalf("init log output failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	logger.Infof("config loaded: %d assets, server %s", len(cfg.Universe), cfg.Server.Addr)

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.ToLower(strings.TrimSpace(*mode)) {
	case "serve":
		err = application.Serve(ctx)
	case "snapshot":
		err = application.SnapshotOnce(ctx)
	case "backtest":
		if *requestPath == "" {
			log.Fatalf("mode=backtest requires -request")
		}
		err = application.BacktestOnce(ctx, *requestPath)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func defaultConfigPath() string {
	if env := os.Getenv("SENTRA_CONFIG"); env != "" {
		return env
	}
	return "configs/config.yaml"
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
