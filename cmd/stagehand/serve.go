package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stage runs over HTTP",
	Long: `Serve stage runs over HTTP until interrupted.

Endpoints:
  GET  /healthz                     health check
  POST /api/v1/stages/:stage/run    run a stage, respond with its report
  GET  /metrics                     Prometheus metrics

Examples:
  # Serve on the configured address (default :8787)
  stagehand serve

  # Trigger a run
  curl -X POST http://localhost:8787/api/v1/stages/build/run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := httpapi.NewServer(rt.cfg.Server, rt.orchestrator, rt.logger)
	if err != nil {
		return err
	}

	rt.logger.Info(ctx, "serving stage runs",
		zap.String("addr", rt.cfg.Server.Addr),
		zap.Strings("stages", rt.registry.Stages()))

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
