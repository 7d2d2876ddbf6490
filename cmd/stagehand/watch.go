package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/stagehand/internal/watch"
)

var (
	watchStageFlag    string
	watchEvidenceFlag string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run a stage whenever evidence files change",
	Long: `Watch the evidence directory and re-run a stage on changes.

Bursts of file writes collapse into one run, and a cooldown keeps a
noisy directory from re-running the stage in a tight loop. Watch mode
needs an on-disk evidence directory; the embedded fixtures cannot be
watched.

Examples:
  # Re-run post-deploy analysis as new metrics land
  stagehand watch --stage post --evidence ./evidence`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchStageFlag, "stage", "", "pipeline stage to analyze (pr, build or post)")
	watchCmd.Flags().StringVar(&watchEvidenceFlag, "evidence", "", "evidence directory to watch")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := validateStageFlag(watchStageFlag); err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, runtimeOptions{evidence: watchEvidenceFlag})
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cfg.Evidence.Dir == "" {
		return errors.New("configuration: watch mode requires an evidence directory (--evidence or evidence.dir)")
	}

	w, err := watch.New(rt.cfg.Watch, rt.cfg.Evidence.Dir, watchStageFlag, rt.orchestrator, rt.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}
