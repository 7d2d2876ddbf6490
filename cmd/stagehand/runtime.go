package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/philippgille/chromem-go"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/gateway"
	"github.com/fyrsmithlabs/stagehand/internal/kb"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/pipeline"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
	"github.com/fyrsmithlabs/stagehand/internal/report"
	"github.com/fyrsmithlabs/stagehand/internal/secrets"
	"github.com/fyrsmithlabs/stagehand/internal/telemetry"
)

// runtimeOptions carries CLI flag overrides applied on top of the file
// and environment configuration.
type runtimeOptions struct {
	output   string // report format override
	evidence string // evidence directory override
}

// runtime holds everything a stage run needs. Built once per command,
// released through Close.
type runtime struct {
	cfg          *config.Config
	logger       *logging.Logger
	telemetry    *telemetry.Telemetry
	provider     *gateway.Provider
	nats         *report.NATS
	registry     *pipeline.Registry
	orchestrator *pipeline.Orchestrator
}

// newRuntime loads configuration and wires the full pipeline:
// telemetry, logging, evidence store, tool gateway, reasoning adapter,
// knowledge base, agent registry, report emitters and orchestrator.
//
// Missing credentials never fail construction. No OPENAI_API_KEY
// disables the reasoning adapter; no GITHUB_TOKEN leaves the gateway
// on simulated tools.
func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if opts.evidence != "" {
		cfg.Evidence.Dir = opts.evidence
	}
	if opts.output != "" {
		cfg.Report.Format = opts.output
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tel, telErr := telemetry.New(ctx, telemetryConfig(cfg))

	var logProvider otellog.LoggerProvider
	if tel != nil && cfg.Logging.OTEL {
		logProvider = tel.LoggerProvider()
	}
	logger, err := initLogger(&cfg.Logging, logProvider)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	if telErr != nil {
		logger.Warn(ctx, "telemetry unavailable, continuing without it", zap.Error(telErr))
	}

	store, err := evidence.NewStore(cfg.Evidence.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening evidence store: %w", err)
	}

	provider := gateway.NewProvider(gateway.Config{
		Mode:           cfg.Gateway.Mode,
		Command:        cfg.Gateway.Command,
		Args:           cfg.Gateway.Args,
		ConnectTimeout: cfg.Gateway.ConnectTimeout.Duration(),
		CallTimeout:    cfg.Gateway.CallTimeout.Duration(),
		GitHubToken:    cfg.Gateway.GitHubToken.Value(),
	}, logger)

	adapter := initAdapter(ctx, cfg, logger)
	kbStore := initKB(ctx, cfg, logger)

	allowlist, err := secrets.LoadAllowlist(cfg.Secrets.AllowlistPath)
	if err != nil {
		return nil, fmt.Errorf("loading secret allowlist: %w", err)
	}

	registry, err := pipeline.NewRegistry(pipeline.Deps{
		Evidence:  store,
		Tools:     provider,
		Adapter:   adapter,
		KB:        kbStore,
		Allowlist: allowlist,
		PRNumber:  cfg.Evidence.PRNumber,
		RepoPath:  cfg.Evidence.RepoPath,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building agent registry: %w", err)
	}

	emitter, natsEmitter, err := initEmitters(cfg, logger)
	if err != nil {
		return nil, err
	}

	orch, err := pipeline.NewOrchestrator(registry, emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("building orchestrator: %w", err)
	}

	return &runtime{
		cfg:          cfg,
		logger:       logger,
		telemetry:    tel,
		provider:     provider,
		nats:         natsEmitter,
		registry:     registry,
		orchestrator: orch,
	}, nil
}

// Close releases broker connections, the tool gateway and telemetry.
// Best effort; shutdown failures are logged, not returned.
func (rt *runtime) Close() {
	ctx := context.Background()

	if rt.nats != nil {
		rt.nats.Close()
	}
	if rt.provider != nil {
		if err := rt.provider.Close(); err != nil {
			rt.logger.Warn(ctx, "closing tool gateway", zap.Error(err))
		}
	}
	if rt.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rt.telemetry.Shutdown(shutdownCtx); err != nil {
			rt.logger.Warn(ctx, "telemetry shutdown", zap.Error(err))
		}
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}

// initLogger maps the logging config section onto the logging package.
func initLogger(lc *config.LoggingConfig, otelProvider otellog.LoggerProvider) (*logging.Logger, error) {
	level, err := logging.LevelFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", lc.Level, err)
	}

	cfg := logging.NewDefaultConfig()
	cfg.Level = level
	if lc.Format != "" {
		cfg.Format = lc.Format
	}
	cfg.Output.OTEL = lc.OTEL && otelProvider != nil

	return logging.NewLogger(cfg, otelProvider)
}

// telemetryConfig maps the telemetry config section onto the telemetry
// package.
func telemetryConfig(cfg *config.Config) *telemetry.Config {
	tc := telemetry.NewDefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.ServiceVersion = version
	if cfg.Telemetry.Endpoint != "" {
		tc.Endpoint = cfg.Telemetry.Endpoint
	}
	if cfg.Telemetry.Protocol == "http" {
		tc.Protocol = "http/protobuf"
	}
	if cfg.Telemetry.Enabled {
		tc.Insecure = cfg.Telemetry.Insecure
	}
	return tc
}

// initAdapter builds the reasoning adapter. A missing API key is the
// normal degraded path, not an error.
func initAdapter(ctx context.Context, cfg *config.Config, logger *logging.Logger) reasoning.Adapter {
	client, err := reasoning.NewClient(reasoning.Config{
		Model:          cfg.Reasoning.Model,
		APIKey:         cfg.Reasoning.APIKey.Value(),
		BaseURL:        cfg.Reasoning.BaseURL,
		Temperature:    cfg.Reasoning.Temperature,
		MaxTokens:      cfg.Reasoning.MaxTokens,
		RequestTimeout: cfg.Reasoning.RequestTimeout.Duration(),
		MaxRetries:     cfg.Reasoning.MaxRetries,
		RateLimit:      cfg.Reasoning.RateLimit,
		RateBurst:      cfg.Reasoning.RateBurst,
	}, logger)
	if err != nil {
		if errors.Is(err, reasoning.ErrDisabled) {
			logger.Info(ctx, "reasoning adapter disabled, agents run deterministic analysis only",
				zap.String("reason", "OPENAI_API_KEY not set"))
			return reasoning.Disabled("OPENAI_API_KEY not set")
		}
		logger.Warn(ctx, "reasoning client unavailable", zap.Error(err))
		return reasoning.Disabled(err.Error())
	}

	logger.Info(ctx, "reasoning adapter ready", zap.String("model", cfg.Reasoning.Model))
	return client
}

// initKB opens and seeds the incident knowledge base. Failures only
// cost RCA enrichment, so they degrade to a nil store.
func initKB(ctx context.Context, cfg *config.Config, logger *logging.Logger) *kb.Store {
	if cfg.KB.Disabled {
		return nil
	}

	var embedder chromem.EmbeddingFunc
	if cfg.KB.Embedding == config.KBEmbeddingOpenAI {
		if cfg.Reasoning.APIKey.IsSet() {
			embedder = kb.OpenAIEmbedding(cfg.Reasoning.APIKey.Value())
		} else {
			logger.Warn(ctx, "kb.embedding is openai but OPENAI_API_KEY is not set, using local embedder")
		}
	}

	store, err := kb.New(kb.Config{Path: cfg.KB.Path, Results: cfg.KB.Results}, embedder, logger)
	if err != nil {
		logger.Warn(ctx, "knowledge base unavailable, RCA runs without related incidents", zap.Error(err))
		return nil
	}
	if err := store.Seed(ctx); err != nil {
		logger.Warn(ctx, "knowledge base seeding failed", zap.Error(err))
	}
	return store
}

// initEmitters assembles the report sinks: console or JSON on stdout,
// an optional file, an optional NATS subject.
func initEmitters(cfg *config.Config, logger *logging.Logger) (report.Emitter, *report.NATS, error) {
	var sinks report.Multi

	switch cfg.Report.Format {
	case config.ReportFormatJSON:
		sinks = append(sinks, report.NewJSON(os.Stdout))
	default:
		sinks = append(sinks, report.NewConsole(os.Stdout))
	}

	if cfg.Report.OutputPath != "" {
		sinks = append(sinks, report.NewFile(cfg.Report.OutputPath))
	}

	var natsEmitter *report.NATS
	if cfg.Report.NATS.URL != "" {
		n, err := report.NewNATS(cfg.Report.NATS, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting report broker: %w", err)
		}
		natsEmitter = n
		sinks = append(sinks, n)
	}

	if len(sinks) == 1 {
		return sinks[0], natsEmitter, nil
	}
	return sinks, natsEmitter, nil
}
