package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
	"github.com/fyrsmithlabs/stagehand/internal/secrets"
)

var summarizeExposuresSig = reasoning.Signature{
	Name:         "summarize_exposures",
	Instructions: "You are a security engineer. Summarize the hardcoded secret exposures below and recommend remediations. Never repeat the secret values.",
	Inputs: []reasoning.Field{
		{Name: "exposures", Desc: "detected secret exposures with rule and line"},
	},
	Outputs: []reasoning.Field{
		{Name: "summary", Desc: "one-paragraph assessment of the exposure"},
		{Name: "fix_recommendations", Desc: "list of remediation steps"},
	},
}

// SecretExposure is one detected hardcoded secret. The matched value
// is redacted down to a short prefix before it leaves the agent.
type SecretExposure struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Line        int    `json:"line"`
	Redacted    string `json:"redacted"`
}

// SecurityWatchFindings is the security-watch agent report payload.
type SecurityWatchFindings struct {
	HardcodedSecrets   []SecretExposure `json:"hardcoded_secrets"`
	Summary            string           `json:"summary"`
	FixRecommendations []string         `json:"fix_recommendations"`
}

// SecurityWatch scans code evidence for hardcoded secrets. Detection
// is fully deterministic; the reasoning adapter only polishes the
// summary, so the agent succeeds even without credentials.
type SecurityWatch struct {
	evid      *evidence.Store
	allowlist *secrets.Allowlist
	adapter   reasoning.Adapter
	logger    *logging.Logger
}

// NewSecurityWatch creates the security-watch agent. allowlist and
// adapter may be nil.
func NewSecurityWatch(evid *evidence.Store, allowlist *secrets.Allowlist, adapter reasoning.Adapter, logger *logging.Logger) *SecurityWatch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SecurityWatch{evid: evid, allowlist: allowlist, adapter: adapter, logger: logger}
}

func (a *SecurityWatch) ID() string { return IDSecurityWatch }

func (a *SecurityWatch) Describe() string {
	return "Scans code for hardcoded secrets and credential exposure"
}

func (a *SecurityWatch) Run(ctx context.Context) Result {
	started := time.Now()
	ctx = logging.WithAgent(ctx, a.ID())

	code, err := a.evid.Text(evidence.FileSnippet)
	if err != nil {
		a.logger.Warn(ctx, "code evidence missing, scanning empty input", zap.Error(err))
		code = ""
	}

	detected, err := secrets.Detect(code, a.allowlist)
	if err != nil {
		return failure(a.ID(), fmt.Errorf("scanning for secrets: %w", err), started)
	}

	exposures := make([]SecretExposure, 0, len(detected))
	for _, f := range detected {
		exposures = append(exposures, SecretExposure{
			RuleID:      f.RuleID,
			Description: f.RuleDesc,
			Line:        f.Line,
			Redacted:    redactSecret(f.Match),
		})
	}

	summary, recommendations := describeExposures(exposures)
	if a.adapter != nil && len(exposures) > 0 {
		if out, err := a.adapter.Predict(ctx, summarizeExposuresSig, map[string]any{
			"exposures": exposureLines(exposures),
		}); err == nil {
			summary = orDefault(stringField(out, "summary"), summary)
			recommendations = withDefault(stringsField(out, "fix_recommendations"), recommendations)
		} else {
			a.logger.Warn(ctx, "exposure summary unavailable, using deterministic summary", zap.Error(err))
		}
	}

	findings := SecurityWatchFindings{
		HardcodedSecrets:   exposures,
		Summary:            summary,
		FixRecommendations: recommendations,
	}
	return success(a.ID(), findings, started)
}

// redactSecret keeps a short identifying prefix and masks the rest.
func redactSecret(s string) string {
	const keep = 4
	if len(s) <= keep*2 {
		return "****"
	}
	return s[:keep] + "****"
}

func describeExposures(exposures []SecretExposure) (string, []string) {
	if len(exposures) == 0 {
		return "No hardcoded secrets detected.", []string{"Keep credentials in the secret manager."}
	}

	rules := make([]string, 0, len(exposures))
	seen := make(map[string]struct{})
	for _, e := range exposures {
		if _, ok := seen[e.RuleID]; ok {
			continue
		}
		seen[e.RuleID] = struct{}{}
		rules = append(rules, e.RuleID)
	}

	summary := fmt.Sprintf("%d hardcoded secret(s) detected (%s). Treat them as compromised.",
		len(exposures), strings.Join(rules, ", "))
	recommendations := []string{
		"Rotate the exposed credentials immediately.",
		"Move secrets to environment variables or a secret manager.",
		"Purge the values from version control history.",
	}
	return summary, recommendations
}

func exposureLines(exposures []SecretExposure) []string {
	lines := make([]string, 0, len(exposures))
	for _, e := range exposures {
		lines = append(lines, fmt.Sprintf("line %d: %s (%s)", e.Line, e.Description, e.RuleID))
	}
	return lines
}

var _ Agent = (*SecurityWatch)(nil)
