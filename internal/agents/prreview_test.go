package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

func prReviewOutputs() map[string]map[string]any {
	return map[string]map[string]any{
		"analyze_changes": {
			"security_issues": []any{"Connection string may leak credentials in pool logs"},
			"edge_cases":      []any{"Pool exhaustion under burst traffic"},
		},
		"review_docs": {
			"doc_updates":     []any{"docs/runbooks/payment.md"},
			"doc_suggestions": []any{"Document the pool sizing knobs"},
		},
		"analyze_impact": {
			"impact_analysis": "Medium blast radius: payment service only",
			"risk_score":      0.6,
		},
	}
}

func TestPRReviewRun(t *testing.T) {
	adapter := &fakeAdapter{outputs: prReviewOutputs()}
	agent := NewPRReview(simulatedTools(), adapter, 0, "", nil)

	res := agent.Run(context.Background())

	require.Equal(t, StatusOK, res.Status)
	require.Equal(t, IDPRReview, res.AgentID)
	assert.Empty(t, res.Error)

	findings, ok := res.Findings.(PRReviewFindings)
	require.True(t, ok)
	assert.Equal(t, []string{"Connection string may leak credentials in pool logs"}, findings.SecurityIssues)
	assert.Equal(t, []string{"Pool exhaustion under burst traffic"}, findings.EdgeCases)
	assert.Equal(t, "Medium blast radius: payment service only", findings.ImpactAnalysis)
	assert.Equal(t, 6.0, findings.RiskScore) // 0.6 rescales to the 0-10 scale

	assert.Equal(t, []string{"analyze_changes", "review_docs", "analyze_impact"}, adapter.calls)
}

func TestPRReviewFeedsFixtureEvidence(t *testing.T) {
	adapter := &fakeAdapter{outputs: prReviewOutputs()}
	agent := NewPRReview(simulatedTools(), adapter, 0, "", nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)

	prContent, _ := adapter.inputs["analyze_changes"]["pr_content"].(string)
	assert.Contains(t, prContent, "PR #142")
	assert.Contains(t, prContent, "Add connection pooling to payment service")
	assert.Contains(t, prContent, "services/payment/db.py (modified, +58 -12)")

	diff, _ := adapter.inputs["review_docs"]["changes"].(string)
	assert.Contains(t, diff, "POOL_MAX = 20")
}

func TestPRReviewEmptyModelOutputsUseDefaults(t *testing.T) {
	adapter := &fakeAdapter{outputs: map[string]map[string]any{
		"analyze_changes": {"security_issues": []any{}, "edge_cases": ""},
		"review_docs":     {"doc_updates": []any{}, "doc_suggestions": []any{}},
		"analyze_impact":  {"impact_analysis": "", "risk_score": 0},
	}}
	agent := NewPRReview(simulatedTools(), adapter, 0, "", nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)

	findings := res.Findings.(PRReviewFindings)
	assert.Equal(t, defaultSecurityIssues, findings.SecurityIssues)
	assert.Equal(t, defaultEdgeCases, findings.EdgeCases)
	assert.Equal(t, defaultDocUpdates, findings.DocUpdates)
	assert.Equal(t, defaultDocSuggestions, findings.DocSuggestions)
	assert.Equal(t, defaultImpactAnalysis, findings.ImpactAnalysis)
	assert.Equal(t, 0.0, findings.RiskScore)
}

func TestPRReviewAdapterFailure(t *testing.T) {
	adapter := &fakeAdapter{
		outputs: prReviewOutputs(),
		errs:    map[string]error{"review_docs": errors.New("model unavailable")},
	}
	agent := NewPRReview(simulatedTools(), adapter, 0, "", nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Findings)
	assert.Contains(t, res.Error, "reviewing documentation")
	assert.Contains(t, res.Error, "model unavailable")
}

func TestPRReviewDisabledAdapter(t *testing.T) {
	agent := NewPRReview(simulatedTools(), reasoning.Disabled("OPENAI_API_KEY not set"), 0, "", nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Findings)
	assert.Contains(t, res.Error, "OPENAI_API_KEY not set")
}

func TestPRReviewNonNumericRiskFails(t *testing.T) {
	outputs := prReviewOutputs()
	outputs["analyze_impact"]["risk_score"] = "sky high"
	agent := NewPRReview(simulatedTools(), &fakeAdapter{outputs: outputs}, 0, "", nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "risk_score")
}

func TestPRReviewRunsWithoutGateway(t *testing.T) {
	// A dead gateway degrades to empty evidence; the review itself
	// still runs.
	adapter := &fakeAdapter{outputs: prReviewOutputs()}
	tools := &fakeTools{err: errors.New("dial failed")}
	agent := NewPRReview(tools, adapter, 0, "", nil)

	res := agent.Run(context.Background())

	require.Equal(t, StatusOK, res.Status)
	prContent, _ := adapter.inputs["analyze_changes"]["pr_content"].(string)
	assert.Empty(t, prContent)
}

func TestRenderPullRequestEmptyPayload(t *testing.T) {
	assert.Empty(t, renderPullRequest(nil))
	assert.Empty(t, renderPullRequest(map[string]any{}))
}
