package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/config"
)

var (
	runStageFlag    string
	runOutputFlag   string
	runEvidenceFlag string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis agents for one pipeline stage",
	Long: `Run the analysis agents for one pipeline stage and emit a report.

The stage selects the agent roster:
  pr      pr-review, config-gate, security-watch
  build   cicd-failure
  post    infra-anomaly, incident-rca

A failing agent never aborts the stage; its failure is part of the
report and the command still exits zero.

Examples:
  # Review a pull request with console output
  stagehand run --stage pr

  # Analyze a failed build as JSON
  stagehand run --stage build --output json

  # Analyze captured evidence from a directory
  stagehand run --stage post --evidence ./incident-42`,
	RunE: runStage,
}

func init() {
	runCmd.Flags().StringVar(&runStageFlag, "stage", "", "pipeline stage to analyze (pr, build or post)")
	runCmd.Flags().StringVar(&runOutputFlag, "output", "", "report format override (console or json)")
	runCmd.Flags().StringVar(&runEvidenceFlag, "evidence", "", "evidence directory (default: embedded fixtures)")
	rootCmd.AddCommand(runCmd)
}

// runStage validates the stage before any wiring so configuration
// mistakes fail fast, then runs the full pipeline once.
func runStage(cmd *cobra.Command, _ []string) error {
	if err := validateStageFlag(runStageFlag); err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, runtimeOptions{
		output:   runOutputFlag,
		evidence: runEvidenceFlag,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	rep, err := rt.orchestrator.Run(ctx, runStageFlag)
	if err != nil {
		return err
	}

	ok, failed := rep.Counts()
	rt.logger.Debug(ctx, "stage run finished",
		zap.String("run_id", rep.RunID),
		zap.Int("ok", ok),
		zap.Int("failed", failed))
	return nil
}

// validateStageFlag rejects a missing or unknown stage before any
// agent is constructed.
func validateStageFlag(stage string) error {
	if stage == "" {
		return errors.New("configuration: --stage is required (pr, build or post)")
	}
	if !config.ValidStage(stage) {
		return fmt.Errorf("configuration: unknown stage %q (valid stages: pr, build, post)", stage)
	}
	return nil
}
