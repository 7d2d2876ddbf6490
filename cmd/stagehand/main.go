// Stagehand runs DevOps analysis agents against pipeline evidence.
//
// Each invocation analyzes one pipeline stage: pr (pull request
// review), build (CI/CD failure analysis) or post (post-deployment
// health and incident RCA). Agents read evidence fixtures, call
// external tools through an MCP gateway that degrades to embedded
// fixtures, and optionally enrich their findings through an
// OpenAI-compatible model.
//
// Configuration is loaded from ~/.config/stagehand/config.yaml and
// STAGEHAND_* environment variables. OPENAI_API_KEY and GITHUB_TOKEN
// are optional; without them agents fall back to deterministic
// analysis over simulated tools.
//
// Usage:
//
//	# Analyze a pull request
//	stagehand run --stage pr
//
//	# Analyze a failed build, report as JSON
//	stagehand run --stage build --output json
//
//	# Serve stage runs over HTTP
//	stagehand serve
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the --config persistent flag.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "DevOps analysis agents for pipeline stages",
	Long: `Stagehand runs analysis agents against one pipeline stage.

Stages:
  pr      pr-review, config-gate and security-watch on pull request evidence
  build   cicd-failure on pipeline logs
  post    infra-anomaly and incident-rca on metrics and alerts

Credentials are optional. Without GITHUB_TOKEN tools run simulated from
embedded fixtures; without OPENAI_API_KEY agents skip model-backed
enrichment and report deterministic findings only.`,
	Version:      version,
	SilenceUsage: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/stagehand/config.yaml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func printVersion() {
	fmt.Printf("stagehand\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}
