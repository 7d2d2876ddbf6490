package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

// Fallback strings used when the model returns empty output fields.
const (
	defaultGateWarning     = "No warnings found."
	defaultRootWarning     = "No critical warning detected."
	defaultRecommendations = "No recommendations provided."
)

var validateManifestSig = reasoning.Signature{
	Name:         "validate_manifest",
	Instructions: "You are a deployment gatekeeper. Review the Kubernetes manifest for configuration risks before it ships to production. The lint findings below were produced by static checks; confirm, extend or dismiss them, pick the single most critical warning, and score the deploy risk from 0 (safe) to 10 (dangerous).",
	Inputs: []reasoning.Field{
		{Name: "manifest_yaml", Desc: "the Kubernetes manifest under review"},
		{Name: "lint_findings", Desc: "warnings raised by static manifest checks"},
	},
	Outputs: []reasoning.Field{
		{Name: "warnings", Desc: "list of configuration warnings"},
		{Name: "root_warning", Desc: "the single most critical warning"},
		{Name: "risk_score", Desc: "numeric deploy risk from 0 to 10"},
		{Name: "recommendations", Desc: "list of concrete remediations"},
	},
}

// ConfigGateFindings is the config-gate agent report payload.
type ConfigGateFindings struct {
	Warnings        []string `json:"warnings"`
	RootWarning     string   `json:"root_warning"`
	RiskScore       float64  `json:"risk_score"`
	Recommendations []string `json:"recommendations"`
}

// ConfigGate validates deployment manifests before they reach the
// cluster. Static lint checks run first and feed the model, so the
// agent still reports the deterministic findings when the model
// returns nothing beyond them.
type ConfigGate struct {
	evid    *evidence.Store
	adapter reasoning.Adapter
	logger  *logging.Logger
}

// NewConfigGate creates the config-gate agent.
func NewConfigGate(evid *evidence.Store, adapter reasoning.Adapter, logger *logging.Logger) *ConfigGate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ConfigGate{evid: evid, adapter: adapter, logger: logger}
}

func (a *ConfigGate) ID() string { return IDConfigGate }

func (a *ConfigGate) Describe() string {
	return "Validates deployment manifests for configuration risks before rollout"
}

func (a *ConfigGate) Run(ctx context.Context) Result {
	started := time.Now()
	ctx = logging.WithAgent(ctx, a.ID())

	manifest, err := a.evid.Text(evidence.FileManifest)
	if err != nil {
		a.logger.Warn(ctx, "manifest evidence missing, validating empty input", zap.Error(err))
		manifest = ""
	}

	hints := LintManifest(manifest)
	a.logger.Debug(ctx, "manifest linted", zap.Int("warnings", len(hints)))

	out, err := a.adapter.Predict(ctx, validateManifestSig, map[string]any{
		"manifest_yaml": manifest,
		"lint_findings": hints,
	})
	if err != nil {
		return failure(a.ID(), fmt.Errorf("validating manifest: %w", err), started)
	}

	risk, ok := floatField(out, "risk_score")
	if !ok {
		return failure(a.ID(), fmt.Errorf("%w: risk_score is not numeric", reasoning.ErrIncomplete), started)
	}

	// Model warnings win; lint findings back them up; the neutral
	// default covers a clean manifest.
	warnings := stringsField(out, "warnings")
	if len(warnings) == 0 {
		warnings = hints
	}

	findings := ConfigGateFindings{
		Warnings:        withDefault(warnings, []string{defaultGateWarning}),
		RootWarning:     orDefault(stringField(out, "root_warning"), defaultRootWarning),
		RiskScore:       normalizeRisk(risk),
		Recommendations: withDefault(stringsField(out, "recommendations"), []string{defaultRecommendations}),
	}
	return success(a.ID(), findings, started)
}

var _ Agent = (*ConfigGate)(nil)
