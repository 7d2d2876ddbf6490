package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

func cicdOutputs() map[string]map[string]any {
	return map[string]map[string]any{
		"analyze_failure": {
			"root_cause":      "Database migration could not reach db-prod.company.com:5432",
			"fix_suggestions": []any{"Verify the database is accepting connections", "Retry the deploy after failover completes"},
		},
		"impact_estimate": {
			"impact_level": "high",
		},
	}
}

func TestCICDFailureRun(t *testing.T) {
	adapter := &fakeAdapter{outputs: cicdOutputs()}
	agent := NewCICDFailure(embeddedEvidence(t), adapter, nil)

	res := agent.Run(context.Background())

	require.Equal(t, StatusOK, res.Status)
	require.Equal(t, IDCICDFailure, res.AgentID)

	findings := res.Findings.(CICDFailureFindings)
	assert.NotEmpty(t, findings.RootCause)
	assert.Equal(t, ImpactHigh, findings.ImpactLevel) // casing normalized
	assert.Len(t, findings.FixSuggestions, 2)
	assert.Equal(t, []string{"ServiceUnavailable"}, findings.Signals)

	assert.Equal(t, []string{"analyze_failure", "impact_estimate"}, adapter.calls)
}

func TestCICDFailureFeedsLogsAndSignals(t *testing.T) {
	adapter := &fakeAdapter{outputs: cicdOutputs()}
	agent := NewCICDFailure(embeddedEvidence(t), adapter, nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)

	logs, _ := adapter.inputs["analyze_failure"]["pipeline_logs"].(string)
	assert.Contains(t, logs, "Connection refused: db-prod.company.com:5432")

	signals, ok := adapter.inputs["analyze_failure"]["signals"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"ServiceUnavailable"}, signals)

	rootCause, _ := adapter.inputs["impact_estimate"]["root_cause"].(string)
	assert.Contains(t, rootCause, "db-prod.company.com:5432")
}

func TestCICDFailureEmptyRootCauseFails(t *testing.T) {
	outputs := cicdOutputs()
	outputs["analyze_failure"]["root_cause"] = "  "
	agent := NewCICDFailure(embeddedEvidence(t), &fakeAdapter{outputs: outputs}, nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Findings)
	assert.Contains(t, res.Error, "root_cause")
}

func TestCICDFailureUnknownImpactFails(t *testing.T) {
	outputs := cicdOutputs()
	outputs["impact_estimate"]["impact_level"] = "catastrophic-ish"
	agent := NewCICDFailure(embeddedEvidence(t), &fakeAdapter{outputs: outputs}, nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "impact_level")
}

func TestCICDFailureDisabledAdapter(t *testing.T) {
	agent := NewCICDFailure(embeddedEvidence(t), reasoning.Disabled("OPENAI_API_KEY not set"), nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Findings)
	assert.Contains(t, res.Error, "OPENAI_API_KEY not set")
}

func TestCICDFailureAdapterFailureOnImpact(t *testing.T) {
	adapter := &fakeAdapter{
		outputs: cicdOutputs(),
		errs:    map[string]error{"impact_estimate": errors.New("model unavailable")},
	}
	agent := NewCICDFailure(embeddedEvidence(t), adapter, nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "estimating impact")
}
