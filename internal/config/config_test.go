package config

import (
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.Gateway.Mode != GatewayModeAuto {
		t.Errorf("Gateway.Mode = %q, want auto", cfg.Gateway.Mode)
	}
	if cfg.Gateway.CallTimeout.Duration() != 10*time.Second {
		t.Errorf("Gateway.CallTimeout = %v, want 10s", cfg.Gateway.CallTimeout.Duration())
	}
	if cfg.Reasoning.Model != "gpt-4o-mini" {
		t.Errorf("Reasoning.Model = %q, want gpt-4o-mini", cfg.Reasoning.Model)
	}
	if cfg.Reasoning.MaxRetries != 3 {
		t.Errorf("Reasoning.MaxRetries = %d, want 3", cfg.Reasoning.MaxRetries)
	}
	if cfg.Report.Format != ReportFormatConsole {
		t.Errorf("Report.Format = %q, want console", cfg.Report.Format)
	}
	if cfg.KB.Results != 3 {
		t.Errorf("KB.Results = %d, want 3", cfg.KB.Results)
	}
	if cfg.KB.Embedding != KBEmbeddingLocal {
		t.Errorf("KB.Embedding = %q, want local", cfg.KB.Embedding)
	}
	if cfg.KB.Disabled {
		t.Error("KB should be enabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Telemetry.Protocol != "grpc" {
		t.Errorf("Telemetry.Protocol = %q, want grpc", cfg.Telemetry.Protocol)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaulted config should validate, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad gateway mode",
			mutate:  func(c *Config) { c.Gateway.Mode = "remote" },
			wantSub: "gateway.mode",
		},
		{
			name:    "bad report format",
			mutate:  func(c *Config) { c.Report.Format = "xml" },
			wantSub: "report.format",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Reasoning.Temperature = 3.5 },
			wantSub: "reasoning.temperature",
		},
		{
			name:    "kb results too small",
			mutate:  func(c *Config) { c.KB.Results = 0 },
			wantSub: "kb.results",
		},
		{
			name:    "bad kb embedding",
			mutate:  func(c *Config) { c.KB.Embedding = "cohere" },
			wantSub: "kb.embedding",
		},
		{
			name:    "empty server addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantSub: "server.addr",
		},
		{
			name:    "bad telemetry protocol",
			mutate:  func(c *Config) { c.Telemetry.Protocol = "udp" },
			wantSub: "telemetry.protocol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantSub)
			}
		})
	}
}

func TestValidStage(t *testing.T) {
	for _, s := range []string{StagePR, StageBuild, StagePost} {
		if !ValidStage(s) {
			t.Errorf("ValidStage(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "deploy", "PR", "all"} {
		if ValidStage(s) {
			t.Errorf("ValidStage(%q) = true, want false", s)
		}
	}
}
