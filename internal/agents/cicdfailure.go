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

var analyzeFailureSig = reasoning.Signature{
	Name:         "analyze_failure",
	Instructions: "You are a CI/CD engineer. Read the pipeline logs, identify the root cause of the failure and suggest concrete fixes. The signals below were extracted mechanically from the logs.",
	Inputs: []reasoning.Field{
		{Name: "pipeline_logs", Desc: "raw logs of the failed pipeline run"},
		{Name: "signals", Desc: "failure signals extracted from the logs"},
	},
	Outputs: []reasoning.Field{
		{Name: "root_cause", Desc: "the most likely root cause of the failure"},
		{Name: "fix_suggestions", Desc: "list of concrete fixes to try"},
	},
}

var impactEstimateSig = reasoning.Signature{
	Name:         "impact_estimate",
	Instructions: "Estimate the delivery impact of the root cause below. Answer with exactly one of Low, Medium or High.",
	Inputs: []reasoning.Field{
		{Name: "root_cause", Desc: "the diagnosed root cause"},
	},
	Outputs: []reasoning.Field{
		{Name: "impact_level", Desc: "one of Low, Medium or High"},
	},
}

// CICDFailureFindings is the cicd-failure agent report payload.
type CICDFailureFindings struct {
	RootCause      string   `json:"root_cause"`
	FixSuggestions []string `json:"fix_suggestions"`
	ImpactLevel    string   `json:"impact_level"`
	Signals        []string `json:"signals"`
}

// CICDFailure diagnoses failed pipeline runs from their logs. Signal
// extraction is deterministic; the diagnosis itself needs the
// reasoning adapter.
type CICDFailure struct {
	evid    *evidence.Store
	adapter reasoning.Adapter
	logger  *logging.Logger
}

// NewCICDFailure creates the cicd-failure agent.
func NewCICDFailure(evid *evidence.Store, adapter reasoning.Adapter, logger *logging.Logger) *CICDFailure {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CICDFailure{evid: evid, adapter: adapter, logger: logger}
}

func (a *CICDFailure) ID() string { return IDCICDFailure }

func (a *CICDFailure) Describe() string {
	return "Explains pipeline failures from build and deploy logs"
}

func (a *CICDFailure) Run(ctx context.Context) Result {
	started := time.Now()
	ctx = logging.WithAgent(ctx, a.ID())

	logs, err := a.evid.Text(evidence.FilePipelineLog)
	if err != nil {
		a.logger.Warn(ctx, "pipeline logs missing, diagnosing empty input", zap.Error(err))
		logs = ""
	}

	signals := ExtractSignals(logs)
	a.logger.Debug(ctx, "signals extracted", zap.Strings("signals", signals))

	analysis, err := a.adapter.Predict(ctx, analyzeFailureSig, map[string]any{
		"pipeline_logs": logs,
		"signals":       signals,
	})
	if err != nil {
		return failure(a.ID(), fmt.Errorf("analyzing failure: %w", err), started)
	}

	rootCause := stringField(analysis, "root_cause")
	if rootCause == "" {
		return failure(a.ID(), fmt.Errorf("%w: root_cause is empty", reasoning.ErrIncomplete), started)
	}

	impact, err := a.adapter.Predict(ctx, impactEstimateSig, map[string]any{
		"root_cause": rootCause,
	})
	if err != nil {
		return failure(a.ID(), fmt.Errorf("estimating impact: %w", err), started)
	}

	level, ok := normalizeImpact(stringField(impact, "impact_level"))
	if !ok {
		return failure(a.ID(), fmt.Errorf("%w: impact_level %q is not Low, Medium or High", reasoning.ErrIncomplete, stringField(impact, "impact_level")), started)
	}

	findings := CICDFailureFindings{
		RootCause:      rootCause,
		FixSuggestions: withDefault(stringsField(analysis, "fix_suggestions"), []string{"No fix suggestions provided."}),
		ImpactLevel:    level,
		Signals:        signals,
	}
	return success(a.ID(), findings, started)
}

var _ Agent = (*CICDFailure)(nil)
