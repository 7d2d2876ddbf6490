package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/agents"
	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/gateway"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

type fixedTools struct {
	gw gateway.Gateway
}

func (f *fixedTools) Gateway(context.Context) (gateway.Gateway, error) {
	return f.gw, nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := evidence.NewStore("", nil)
	require.NoError(t, err)

	reg, err := NewRegistry(Deps{
		Evidence: store,
		Tools:    &fixedTools{gw: gateway.NewSimulated(nil)},
		Adapter:  reasoning.Disabled("OPENAI_API_KEY not set"),
	})
	require.NoError(t, err)
	return reg
}

func TestRegistryRosters(t *testing.T) {
	reg := testRegistry(t)

	ids := func(stage string) []string {
		roster, err := reg.Agents(stage)
		require.NoError(t, err)
		out := make([]string, 0, len(roster))
		for _, a := range roster {
			out = append(out, a.ID())
		}
		return out
	}

	assert.Equal(t, []string{agents.IDPRReview, agents.IDConfigGate, agents.IDSecurityWatch}, ids(config.StagePR))
	assert.Equal(t, []string{agents.IDCICDFailure}, ids(config.StageBuild))
	assert.Equal(t, []string{agents.IDInfraAnomaly, agents.IDIncidentRCA}, ids(config.StagePost))
}

func TestRegistryUnknownStage(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Agents("release")

	require.ErrorIs(t, err, ErrUnknownStage)
	assert.Contains(t, err.Error(), `"release"`)
	assert.Contains(t, err.Error(), "build, post, pr")
}

func TestRegistryStages(t *testing.T) {
	assert.Equal(t, []string{"build", "post", "pr"}, testRegistry(t).Stages())
}

func TestNewRegistryValidatesDeps(t *testing.T) {
	store, err := evidence.NewStore("", nil)
	require.NoError(t, err)
	tools := &fixedTools{gw: gateway.NewSimulated(nil)}

	_, err = NewRegistry(Deps{Tools: tools, Adapter: reasoning.Disabled("x")})
	assert.Error(t, err)

	_, err = NewRegistry(Deps{Evidence: store, Adapter: reasoning.Disabled("x")})
	assert.Error(t, err)

	_, err = NewRegistry(Deps{Evidence: store, Tools: tools})
	assert.Error(t, err)
}

// Running the pr stage without credentials mirrors a keyless local
// run: the adapter-backed agents fail, the deterministic scanner
// succeeds, and the report still carries all three results.
func TestPRStageWithoutCredentials(t *testing.T) {
	o, err := NewOrchestrator(testRegistry(t), nil, nil)
	require.NoError(t, err)

	rep, err := o.Run(context.Background(), config.StagePR)
	require.NoError(t, err)

	require.Len(t, rep.Results, 3)

	byID := map[string]agents.Result{}
	for _, res := range rep.Results {
		byID[res.AgentID] = res
	}

	assert.Equal(t, agents.StatusFailed, byID[agents.IDPRReview].Status)
	assert.Contains(t, byID[agents.IDPRReview].Error, "OPENAI_API_KEY not set")
	assert.Equal(t, agents.StatusFailed, byID[agents.IDConfigGate].Status)
	assert.Equal(t, agents.StatusOK, byID[agents.IDSecurityWatch].Status)
	assert.NotNil(t, byID[agents.IDSecurityWatch].Findings)
}

// The post stage keeps working keyless too: infra-anomaly is fully
// deterministic, incident-rca needs the adapter.
func TestPostStageWithoutCredentials(t *testing.T) {
	o, err := NewOrchestrator(testRegistry(t), nil, nil)
	require.NoError(t, err)

	rep, err := o.Run(context.Background(), config.StagePost)
	require.NoError(t, err)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, agents.StatusOK, rep.Results[0].Status)

	findings, ok := rep.Results[0].Findings.(agents.InfraAnomalyFindings)
	require.True(t, ok)
	assert.Equal(t, agents.HealthUnhealthy, findings.Status)
	assert.Contains(t, findings.Anomalies, "CPU usage 93% exceeds 85%")

	assert.Equal(t, agents.StatusFailed, rep.Results[1].Status)
}
