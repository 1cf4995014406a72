package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sentra/internal/backtest"
	"sentra/internal/engine"
	"sentra/internal/logger"
	"sentra/internal/perception"
)

// Server exposes the perception and backtest APIs.
type Server struct {
	addr       string
	perception *perception.Service
	backtest   *backtest.Service
	reportDir  string
	router     *gin.Engine
	httpServer *http.Server
}

type Config struct {
	Addr       string
	Perception *perception.Service
	Backtest   *backtest.Service
	ReportDir  string
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Perception == nil {
		return nil, errors.New("perception service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8089"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:       cfg.Addr,
		perception: cfg.Perception,
		backtest:   cfg.Backtest,
		reportDir:  cfg.ReportDir,
		router:     router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.router.Group("/api")
	pg := api.Group("/perception")
	pg.GET("/today", s.handleToday)
	pg.GET("/history", s.handleHistory)
	pg.POST("/rebuild", s.handleRebuild)

	bg := api.Group("/backtest")
	bg.POST("/run", s.handleBacktestRun)
	bg.GET("/runs", s.handleBacktestRuns)
	bg.GET("/runs/:key", s.handleBacktestRunDetail)
	bg.GET("/runs/:key/report", s.handleBacktestReport)
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.router}
	logger.Infof("http server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleToday(c *gin.Context) {
	snap, err := s.perception.Today(c.Request.Context())
	if err != nil {
		if errors.Is(err, engine.ErrNoSetups) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHistory(c *gin.Context) {
	history := s.perception.History()
	out := make([]gin.H, 0, len(history))
	for _, snap := range history {
		out = append(out, gin.H{
			"id":          snap.ID,
			"generatedAt": snap.GeneratedAt,
			"setups":      len(snap.Setups),
			"version":     snap.Version,
		})
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": out})
}

func (s *Server) handleRebuild(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("asOf")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid asOf: %v", err)})
			return
		}
		asOf = parsed
	}
	snap, err := s.perception.Rebuild(c.Request.Context(), asOf)
	if err != nil {
		if errors.Is(err, engine.ErrNoSetups) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleBacktestRun(c *gin.Context) {
	if s.backtest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest service not configured"})
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := DecodeRunRequest(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.backtest.Run(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, backtest.ErrInvalidRange),
			errors.Is(err, backtest.ErrInvalidStepHours),
			errors.Is(err, backtest.ErrNoBars):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBacktestRuns(c *gin.Context) {
	if s.backtest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest service not configured"})
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	runs, err := s.backtest.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		out = append(out, gin.H{
			"runKey":  run.RunKey,
			"assetId": run.AssetID,
			"from":    run.From,
			"to":      run.To,
			"trades":  run.KPIs.Trades,
			"netPnl":  run.KPIs.NetPnl,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleBacktestRunDetail(c *gin.Context) {
	if s.backtest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest service not configured"})
		return
	}
	run, err := s.backtest.RunByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleBacktestReport(c *gin.Context) {
	if s.backtest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest service not configured"})
		return
	}
	path, err := s.backtest.WriteReportFile(c.Request.Context(), c.Param("key"), s.reportDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.File(path)
}
