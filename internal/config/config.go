// Package config provides configuration loading for stagehand.
//
// Configuration is loaded from a YAML file, overridden by environment
// variables, with sensible defaults for everything else. Credentials
// (OPENAI_API_KEY, GITHUB_TOKEN) are read straight from the environment
// and are never required: missing credentials degrade individual
// components, they never abort a run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Stage identifiers accepted by the pipeline.
const (
	StagePR    = "pr"
	StageBuild = "build"
	StagePost  = "post"
)

// Gateway modes.
const (
	GatewayModeAuto      = "auto"
	GatewayModeLive      = "live"
	GatewayModeSimulated = "simulated"
)

// Report output formats.
const (
	ReportFormatConsole = "console"
	ReportFormatJSON    = "json"
)

// Config holds the complete stagehand configuration.
type Config struct {
	Evidence  EvidenceConfig  `koanf:"evidence"`
	Gateway   GatewayConfig   `koanf:"gateway"`
	Reasoning ReasoningConfig `koanf:"reasoning"`
	Report    ReportConfig    `koanf:"report"`
	KB        KBConfig        `koanf:"kb"`
	Secrets   SecretsConfig   `koanf:"secrets"`
	Server    ServerConfig    `koanf:"server"`
	Watch     WatchConfig     `koanf:"watch"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// EvidenceConfig controls where agents read their fixture evidence from.
// An empty Dir falls back to the embedded defaults.
type EvidenceConfig struct {
	Dir        string `koanf:"dir"`
	RepoPath   string `koanf:"repo_path"`   // optional local git repo for PR diff evidence
	Repository string `koanf:"repository"`  // owner/repo for live GitHub evidence; defaults from GITHUB_REPOSITORY
	PRNumber   int    `koanf:"pr_number"`   // pull request under review; 0 lets the tool pick its default
}

// GatewayConfig controls the external tool gateway.
type GatewayConfig struct {
	Mode           string   `koanf:"mode"`    // auto, live, simulated
	Command        string   `koanf:"command"` // MCP stdio server; empty uses the builtin tool server
	Args           []string `koanf:"args"`
	ConnectTimeout Duration `koanf:"connect_timeout"`
	CallTimeout    Duration `koanf:"call_timeout"`
	GitHubToken    Secret   `koanf:"github_token"` // defaults from GITHUB_TOKEN
}

// ReasoningConfig controls the LLM-backed reasoning adapter.
type ReasoningConfig struct {
	Model          string   `koanf:"model"`
	APIKey         Secret   `koanf:"api_key"` // defaults from OPENAI_API_KEY
	BaseURL        string   `koanf:"base_url"`
	Temperature    float64  `koanf:"temperature"`
	MaxTokens      int      `koanf:"max_tokens"`
	RequestTimeout Duration `koanf:"request_timeout"`
	MaxRetries     int      `koanf:"max_retries"`
	RateLimit      float64  `koanf:"rate_limit"` // requests per second
	RateBurst      int      `koanf:"rate_burst"`
}

// ReportConfig controls stage report emission.
type ReportConfig struct {
	Format     string     `koanf:"format"` // console, json
	OutputPath string     `koanf:"output_path"`
	NATS       NATSConfig `koanf:"nats"`
}

// NATSConfig controls optional report publishing. Disabled when URL is empty.
type NATSConfig struct {
	URL           string   `koanf:"url"`
	SubjectPrefix string   `koanf:"subject_prefix"`
	Timeout       Duration `koanf:"timeout"`
}

// KB embedding backends.
const (
	KBEmbeddingLocal  = "local"
	KBEmbeddingOpenAI = "openai"
)

// KBConfig controls the embedded incident knowledge base. The store is
// on by default; Disabled opts out of RCA enrichment entirely.
type KBConfig struct {
	Disabled  bool   `koanf:"disabled"`
	Path      string `koanf:"path"`      // persistence dir; empty keeps the store in memory
	Results   int    `koanf:"results"`
	Embedding string `koanf:"embedding"` // local, openai
}

// SecretsConfig controls hardcoded-secret detection.
type SecretsConfig struct {
	AllowlistPath string `koanf:"allowlist_path"` // optional TOML allowlist
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string   `koanf:"addr"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// WatchConfig controls evidence-directory watch mode.
type WatchConfig struct {
	Cooldown Duration `koanf:"cooldown"` // minimum gap between triggered runs
	Debounce Duration `koanf:"debounce"` // quiet period after a filesystem event
}

// LoggingConfig holds the logging section; mapped onto logging.Config at startup.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig holds the telemetry section; mapped onto telemetry.Config at startup.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"` // grpc, http
	Insecure bool   `koanf:"insecure"`
}

// applyDefaults sets default values for missing configuration fields.
// Credentials come from the environment when not set in the file.
func applyDefaults(cfg *Config) {
	if cfg.Evidence.Repository == "" {
		cfg.Evidence.Repository = os.Getenv("GITHUB_REPOSITORY")
	}

	if cfg.Gateway.Mode == "" {
		cfg.Gateway.Mode = GatewayModeAuto
	}
	if cfg.Gateway.ConnectTimeout == 0 {
		cfg.Gateway.ConnectTimeout = Duration(5 * time.Second)
	}
	if cfg.Gateway.CallTimeout == 0 {
		cfg.Gateway.CallTimeout = Duration(10 * time.Second)
	}
	if !cfg.Gateway.GitHubToken.IsSet() {
		cfg.Gateway.GitHubToken = Secret(os.Getenv("GITHUB_TOKEN"))
	}

	if cfg.Reasoning.Model == "" {
		cfg.Reasoning.Model = "gpt-4o-mini"
	}
	if !cfg.Reasoning.APIKey.IsSet() {
		cfg.Reasoning.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	}
	if cfg.Reasoning.Temperature == 0 {
		cfg.Reasoning.Temperature = 0.2
	}
	if cfg.Reasoning.MaxTokens == 0 {
		cfg.Reasoning.MaxTokens = 1024
	}
	if cfg.Reasoning.RequestTimeout == 0 {
		cfg.Reasoning.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.Reasoning.MaxRetries == 0 {
		cfg.Reasoning.MaxRetries = 3
	}
	if cfg.Reasoning.RateLimit == 0 {
		cfg.Reasoning.RateLimit = 2
	}
	if cfg.Reasoning.RateBurst == 0 {
		cfg.Reasoning.RateBurst = 4
	}

	if cfg.Report.Format == "" {
		cfg.Report.Format = ReportFormatConsole
	}
	if cfg.Report.NATS.SubjectPrefix == "" {
		cfg.Report.NATS.SubjectPrefix = "stagehand.reports"
	}
	if cfg.Report.NATS.Timeout == 0 {
		cfg.Report.NATS.Timeout = Duration(5 * time.Second)
	}

	if cfg.KB.Results == 0 {
		cfg.KB.Results = 3
	}
	if cfg.KB.Embedding == "" {
		cfg.KB.Embedding = KBEmbeddingLocal
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8787"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Watch.Cooldown == 0 {
		cfg.Watch.Cooldown = Duration(5 * time.Minute)
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(2 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Gateway.Mode {
	case GatewayModeAuto, GatewayModeLive, GatewayModeSimulated:
	default:
		errs = append(errs, fmt.Errorf("gateway.mode must be auto, live, or simulated (got %q)", c.Gateway.Mode))
	}

	switch c.Report.Format {
	case ReportFormatConsole, ReportFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("report.format must be console or json (got %q)", c.Report.Format))
	}

	if c.Reasoning.Temperature < 0 || c.Reasoning.Temperature > 2 {
		errs = append(errs, fmt.Errorf("reasoning.temperature must be in [0, 2] (got %v)", c.Reasoning.Temperature))
	}
	if c.Reasoning.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("reasoning.max_tokens cannot be negative (got %d)", c.Reasoning.MaxTokens))
	}
	if c.Reasoning.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("reasoning.rate_limit cannot be negative (got %v)", c.Reasoning.RateLimit))
	}

	if c.KB.Results < 1 {
		errs = append(errs, fmt.Errorf("kb.results must be at least 1 (got %d)", c.KB.Results))
	}
	switch c.KB.Embedding {
	case KBEmbeddingLocal, KBEmbeddingOpenAI:
	default:
		errs = append(errs, fmt.Errorf("kb.embedding must be local or openai (got %q)", c.KB.Embedding))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr cannot be empty"))
	}

	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("telemetry.protocol must be grpc or http (got %q)", c.Telemetry.Protocol))
	}

	return errors.Join(errs...)
}

// ValidStage reports whether s names a known pipeline stage.
func ValidStage(s string) bool {
	switch s {
	case StagePR, StageBuild, StagePost:
		return true
	}
	return false
}
