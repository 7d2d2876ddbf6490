// Package httpapi exposes stage runs over HTTP. The surface is small:
// a health check, a run-stage endpoint, and a Prometheus scrape
// endpoint.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/pipeline"
	"github.com/fyrsmithlabs/stagehand/internal/report"
)

var stageRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stagehand_http_stage_runs_total",
		Help: "Stage runs triggered over HTTP by stage and outcome",
	},
	[]string{"stage", "outcome"},
)

func init() {
	prometheus.MustRegister(stageRunsTotal)
}

// Runner executes one pipeline stage.
type Runner interface {
	Run(ctx context.Context, stage string) (*report.StageReport, error)
}

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP server around a stage runner.
type Server struct {
	cfg    config.ServerConfig
	runner Runner
	echo   *echo.Echo
	logger *logging.Logger
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(cfg config.ServerConfig, runner Runner, logger *logging.Logger) (*Server, error) {
	if runner == nil {
		return nil, errors.New("stage runner is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		cfg:    cfg,
		runner: runner,
		echo:   e,
		logger: logger.Named("httpapi"),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.POST("/api/v1/stages/:stage/run", s.handleRunStage)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "stagehand"})
}

// handleRunStage runs the named stage synchronously and returns its
// report. An unknown stage is the caller's mistake; anything else
// that errors is ours.
func (s *Server) handleRunStage(c echo.Context) error {
	ctx := c.Request().Context()
	stage := c.Param("stage")

	rep, err := s.runner.Run(ctx, stage)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnknownStage) {
			stageRunsTotal.WithLabelValues(stage, "rejected").Inc()
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		stageRunsTotal.WithLabelValues(stage, "error").Inc()
		s.logger.Error(ctx, "stage run failed", zap.String("stage", stage), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	stageRunsTotal.WithLabelValues(stage, "completed").Inc()
	return c.JSON(http.StatusOK, rep)
}

// Start runs the server until ctx is canceled, then shuts down
// gracefully within the configured timeout. Returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(s.cfg.ShutdownTimeout),
		)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
