package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/gateway"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

// Fallback strings used when the model returns empty output fields.
var (
	defaultSecurityIssues = []string{"No security issues identified in the current codebase"}
	defaultEdgeCases      = []string{"No potential edge cases detected"}
	defaultDocUpdates     = []string{"No documentation updates required"}
	defaultDocSuggestions = []string{"Documentation appears to be complete"}
)

const defaultImpactAnalysis = "No significant impact detected"

var analyzeChangesSig = reasoning.Signature{
	Name:         "analyze_changes",
	Instructions: "You are a senior code reviewer. Analyze the pull request below for security problems and behavioral edge cases. Report only concrete issues grounded in the changes.",
	Inputs: []reasoning.Field{
		{Name: "pr_content", Desc: "pull request title, description and changed files"},
	},
	Outputs: []reasoning.Field{
		{Name: "security_issues", Desc: "list of security issues found in the changes"},
		{Name: "edge_cases", Desc: "list of behavioral edge cases the changes may trigger"},
	},
}

var reviewDocsSig = reasoning.Signature{
	Name:         "review_docs",
	Instructions: "You are a documentation reviewer. Given a code diff, identify documentation that must be updated and suggest improvements.",
	Inputs: []reasoning.Field{
		{Name: "changes", Desc: "unified diff of the pull request"},
	},
	Outputs: []reasoning.Field{
		{Name: "doc_updates", Desc: "list of documentation files or sections that need updating"},
		{Name: "doc_suggestions", Desc: "list of suggested documentation improvements"},
	},
}

var analyzeImpactSig = reasoning.Signature{
	Name:         "analyze_impact",
	Instructions: "You are a release manager. Assess the blast radius of the diff against the rest of the codebase and score the merge risk from 0 (safe) to 10 (dangerous).",
	Inputs: []reasoning.Field{
		{Name: "changes", Desc: "unified diff of the pull request"},
		{Name: "codebase", Desc: "summary of the surrounding codebase and pull request metadata"},
	},
	Outputs: []reasoning.Field{
		{Name: "impact_analysis", Desc: "narrative assessment of the change impact"},
		{Name: "risk_score", Desc: "numeric merge risk from 0 to 10"},
	},
}

// PRReviewFindings is the pr-review agent report payload.
type PRReviewFindings struct {
	SecurityIssues []string `json:"security_issues"`
	EdgeCases      []string `json:"edge_cases"`
	DocUpdates     []string `json:"doc_updates"`
	DocSuggestions []string `json:"doc_suggestions"`
	ImpactAnalysis string   `json:"impact_analysis"`
	RiskScore      float64  `json:"risk_score"`
}

// PRReview reviews a pull request for security issues, edge cases,
// stale documentation and merge risk. PR data comes from the tool
// gateway; when a local repository is configured, the working-tree
// diff supplements the tool payload.
type PRReview struct {
	tools    ToolSource
	adapter  reasoning.Adapter
	number   int
	repoPath string
	logger   *logging.Logger
}

// NewPRReview creates the pr-review agent. number selects the pull
// request to fetch (0 lets the tool pick its default); repoPath may
// name a local git checkout used as a diff fallback.
func NewPRReview(tools ToolSource, adapter reasoning.Adapter, number int, repoPath string, logger *logging.Logger) *PRReview {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PRReview{tools: tools, adapter: adapter, number: number, repoPath: repoPath, logger: logger}
}

func (a *PRReview) ID() string { return IDPRReview }

func (a *PRReview) Describe() string {
	return "Reviews pull requests for security issues, edge cases, documentation drift and merge risk"
}

func (a *PRReview) Run(ctx context.Context) Result {
	started := time.Now()
	ctx = logging.WithAgent(ctx, a.ID())

	prContent, diff := a.gatherEvidence(ctx)

	analysis, err := a.adapter.Predict(ctx, analyzeChangesSig, map[string]any{
		"pr_content": prContent,
	})
	if err != nil {
		return failure(a.ID(), fmt.Errorf("analyzing changes: %w", err), started)
	}

	docs, err := a.adapter.Predict(ctx, reviewDocsSig, map[string]any{
		"changes": diff,
	})
	if err != nil {
		return failure(a.ID(), fmt.Errorf("reviewing documentation: %w", err), started)
	}

	impact, err := a.adapter.Predict(ctx, analyzeImpactSig, map[string]any{
		"changes":  diff,
		"codebase": prContent,
	})
	if err != nil {
		return failure(a.ID(), fmt.Errorf("analyzing impact: %w", err), started)
	}

	risk, ok := floatField(impact, "risk_score")
	if !ok {
		return failure(a.ID(), fmt.Errorf("%w: risk_score is not numeric", reasoning.ErrIncomplete), started)
	}

	findings := PRReviewFindings{
		SecurityIssues: withDefault(stringsField(analysis, "security_issues"), defaultSecurityIssues),
		EdgeCases:      withDefault(stringsField(analysis, "edge_cases"), defaultEdgeCases),
		DocUpdates:     withDefault(stringsField(docs, "doc_updates"), defaultDocUpdates),
		DocSuggestions: withDefault(stringsField(docs, "doc_suggestions"), defaultDocSuggestions),
		ImpactAnalysis: orDefault(stringField(impact, "impact_analysis"), defaultImpactAnalysis),
		RiskScore:      normalizeRisk(risk),
	}
	return success(a.ID(), findings, started)
}

// gatherEvidence fetches the pull request through the gateway and
// renders it for the model. Evidence failures degrade to empty inputs
// so the review still runs.
func (a *PRReview) gatherEvidence(ctx context.Context) (prContent, diff string) {
	gw, err := a.tools.Gateway(ctx)
	if err != nil {
		a.logger.Warn(ctx, "tool gateway unavailable, reviewing without PR data", zap.Error(err))
		return "", a.localDiff(ctx)
	}

	req := gateway.ToolRequest{Tool: "get_pull_request"}
	if a.number > 0 {
		req.Context = map[string]any{"number": a.number}
	}
	resp, err := gw.Call(ctx, req)
	if err != nil {
		a.logger.Warn(ctx, "pull request evidence unavailable", zap.Error(err))
		return "", a.localDiff(ctx)
	}

	diff, _ = resp.Payload["diff"].(string)
	if diff == "" {
		diff = a.localDiff(ctx)
	}
	return renderPullRequest(resp.Payload), diff
}

// localDiff returns the working-tree diff of the configured repository,
// or empty when no repository is configured or readable.
func (a *PRReview) localDiff(ctx context.Context) string {
	if a.repoPath == "" {
		return ""
	}
	branch, patch, err := evidence.HeadDiff(a.repoPath)
	if err != nil {
		a.logger.Debug(ctx, "local diff unavailable", zap.String("repo", a.repoPath), zap.Error(err))
		return ""
	}
	a.logger.Debug(ctx, "using local diff", zap.String("branch", branch))
	return patch
}

// renderPullRequest flattens a get_pull_request payload into the text
// block the model reads.
func renderPullRequest(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}

	var b strings.Builder
	if title, _ := payload["title"].(string); title != "" {
		if n, ok := payload["number"].(float64); ok {
			fmt.Fprintf(&b, "PR #%d: %s\n", int(n), title)
		} else {
			fmt.Fprintf(&b, "PR: %s\n", title)
		}
	}
	if author, _ := payload["author"].(string); author != "" {
		fmt.Fprintf(&b, "Author: %s\n", author)
	}
	branch, _ := payload["branch"].(string)
	base, _ := payload["base"].(string)
	if branch != "" || base != "" {
		fmt.Fprintf(&b, "Branch: %s -> %s\n", branch, base)
	}
	if body, _ := payload["body"].(string); body != "" {
		b.WriteString("\n" + body + "\n")
	}
	if files, _ := payload["files"].([]any); len(files) > 0 {
		b.WriteString("\nChanged files:\n")
		for _, f := range files {
			m, ok := f.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["filename"].(string)
			status, _ := m["status"].(string)
			add, _ := m["additions"].(float64)
			del, _ := m["deletions"].(float64)
			fmt.Fprintf(&b, "- %s (%s, +%d -%d)\n", name, status, int(add), int(del))
		}
	}
	return b.String()
}

var _ Agent = (*PRReview)(nil)
