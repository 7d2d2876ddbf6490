package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/toolserver"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Run the GitHub MCP tool server on stdio",
	Long: `Run the GitHub tool server on the stdio MCP transport.

This is the live backend the gateway spawns for itself; running it by
hand is mainly useful for debugging tool calls. Requires GITHUB_TOKEN.
GITHUB_REPOSITORY (owner/repo) sets the default repository for calls
that omit one.`,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Stdout carries MCP frames; logs have to stay off it.
	logger, err := stderrLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	tcfg := toolserver.DefaultConfig()
	tcfg.Version = version
	tcfg.Token = cfg.Gateway.GitHubToken.Value()
	if cfg.Evidence.Repository != "" {
		owner, repo, err := toolserver.SplitRepository(cfg.Evidence.Repository)
		if err != nil {
			return fmt.Errorf("invalid repository %q: %w", cfg.Evidence.Repository, err)
		}
		tcfg.Owner, tcfg.Repo = owner, repo
	}

	srv, err := toolserver.NewServer(ctx, tcfg, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// stderrLogger builds the configured logger with output moved to
// stderr, keeping stdout clean for the protocol.
func stderrLogger(lc *config.LoggingConfig) (*logging.Logger, error) {
	level, err := logging.LevelFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", lc.Level, err)
	}

	cfg := logging.NewDefaultConfig()
	cfg.Level = level
	if lc.Format != "" {
		cfg.Format = lc.Format
	}
	cfg.Output.Stdout = false
	cfg.Output.Stderr = true

	return logging.NewLogger(cfg, nil)
}
