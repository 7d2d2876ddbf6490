package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/kb"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

func rcaOutputs() map[string]map[string]any {
	return map[string]map[string]any{
		"generate_rca": {
			"root_cause":          "Primary database failover left connection pools pointing at the demoted node",
			"affected_components": []any{"checkout-api", "db-prod"},
			"impact_summary":      "Checkout hard-down for 11 minutes.",
			"resolution_steps":    []any{"Fail connections over to the new primary", "Restart checkout-api pods"},
			"prevention_steps":    []any{"Add failover drill to the release checklist"},
		},
	}
}

func seededKB(t *testing.T) *kb.Store {
	t.Helper()
	store, err := kb.New(kb.Config{Results: 2}, kb.HashEmbedding(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background()))
	return store
}

func TestIncidentRCARun(t *testing.T) {
	adapter := &fakeAdapter{outputs: rcaOutputs()}
	agent := NewIncidentRCA(embeddedEvidence(t), nil, adapter, nil)

	res := agent.Run(context.Background())

	require.Equal(t, StatusOK, res.Status)
	require.Equal(t, IDIncidentRCA, res.AgentID)

	findings := res.Findings.(IncidentRCAFindings)
	assert.Contains(t, findings.RootCause, "failover")
	assert.Equal(t, []string{"checkout-api", "db-prod"}, findings.AffectedComponents)
	assert.Len(t, findings.ResolutionSteps, 2)
	assert.Empty(t, findings.RelatedIncidents) // no knowledge base wired
}

func TestIncidentRCAFeedsAlerts(t *testing.T) {
	adapter := &fakeAdapter{outputs: rcaOutputs()}
	agent := NewIncidentRCA(embeddedEvidence(t), nil, adapter, nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)

	alerts, _ := adapter.inputs["generate_rca"]["infra_context"].(string)
	assert.Contains(t, alerts, "DBConnectionFailures")
	assert.Contains(t, alerts, "Connection refused: db-prod.company.com:5432")
}

func TestIncidentRCAWithKnowledgeBase(t *testing.T) {
	adapter := &fakeAdapter{outputs: rcaOutputs()}
	agent := NewIncidentRCA(embeddedEvidence(t), seededKB(t), adapter, nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)

	findings := res.Findings.(IncidentRCAFindings)
	require.Len(t, findings.RelatedIncidents, 2)
	assert.Contains(t, findings.RelatedIncidents, "INC-2041: Checkout outage after database failover")

	similar, ok := adapter.inputs["generate_rca"]["similar_incidents"].([]string)
	require.True(t, ok)
	require.Len(t, similar, 2)
}

func TestIncidentRCAEmptyModelOutputsUseDefaults(t *testing.T) {
	adapter := &fakeAdapter{outputs: map[string]map[string]any{
		"generate_rca": {
			"root_cause":          "",
			"affected_components": []any{},
			"impact_summary":      "",
			"resolution_steps":    []any{},
			"prevention_steps":    []any{},
		},
	}}
	agent := NewIncidentRCA(embeddedEvidence(t), nil, adapter, nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)

	findings := res.Findings.(IncidentRCAFindings)
	assert.Equal(t, defaultRootCause, findings.RootCause)
	assert.Equal(t, []string{"Unknown"}, findings.AffectedComponents)
	assert.Equal(t, defaultImpactSummary, findings.ImpactSummary)
	assert.Equal(t, []string{defaultResolutionSteps}, findings.ResolutionSteps)
	assert.Equal(t, []string{defaultPreventionSteps}, findings.PreventionSteps)
}

func TestIncidentRCADisabledAdapter(t *testing.T) {
	agent := NewIncidentRCA(embeddedEvidence(t), nil, reasoning.Disabled("OPENAI_API_KEY not set"), nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Findings)
	assert.Contains(t, res.Error, "OPENAI_API_KEY not set")
}

func TestIncidentRCAEmptyKBOnlyCostsEnrichment(t *testing.T) {
	// An unseeded knowledge base returns no matches; the RCA still
	// generates.
	empty, err := kb.New(kb.Config{Results: 2}, kb.HashEmbedding(), nil)
	require.NoError(t, err)

	adapter := &fakeAdapter{outputs: rcaOutputs()}
	agent := NewIncidentRCA(embeddedEvidence(t), empty, adapter, nil)

	res := agent.Run(context.Background())
	require.Equal(t, StatusOK, res.Status)
	assert.Empty(t, res.Findings.(IncidentRCAFindings).RelatedIncidents)
}

func TestIncidentRCAAdapterFailure(t *testing.T) {
	adapter := &fakeAdapter{errs: map[string]error{"generate_rca": errors.New("model unavailable")}}
	agent := NewIncidentRCA(embeddedEvidence(t), nil, adapter, nil)

	res := agent.Run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "generating RCA")
}
