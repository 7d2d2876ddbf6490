package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/stagehand/internal/agents"
	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/kb"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
	"github.com/fyrsmithlabs/stagehand/internal/secrets"
)

// ErrUnknownStage rejects stages outside the fixed pr/build/post set.
var ErrUnknownStage = errors.New("unknown stage")

// stageRosters fixes which agents run in which stage, in order.
var stageRosters = map[string][]string{
	config.StagePR:    {agents.IDPRReview, agents.IDConfigGate, agents.IDSecurityWatch},
	config.StageBuild: {agents.IDCICDFailure},
	config.StagePost:  {agents.IDInfraAnomaly, agents.IDIncidentRCA},
}

// Deps carries the shared collaborators the agents are built from.
type Deps struct {
	Evidence  *evidence.Store
	Tools     agents.ToolSource
	Adapter   reasoning.Adapter
	KB        *kb.Store          // optional; nil skips RCA enrichment
	Allowlist *secrets.Allowlist // optional
	PRNumber  int
	RepoPath  string
	Logger    *logging.Logger
}

// Registry owns the constructed agents and resolves stage rosters.
type Registry struct {
	byID map[string]agents.Agent
}

// NewRegistry builds all agents up front. Adapter may be a disabled
// adapter; construction never depends on credentials.
func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Evidence == nil {
		return nil, errors.New("evidence store is required")
	}
	if deps.Tools == nil {
		return nil, errors.New("tool source is required")
	}
	if deps.Adapter == nil {
		return nil, errors.New("reasoning adapter is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	byID := map[string]agents.Agent{
		agents.IDPRReview:      agents.NewPRReview(deps.Tools, deps.Adapter, deps.PRNumber, deps.RepoPath, logger),
		agents.IDConfigGate:    agents.NewConfigGate(deps.Evidence, deps.Adapter, logger),
		agents.IDSecurityWatch: agents.NewSecurityWatch(deps.Evidence, deps.Allowlist, deps.Adapter, logger),
		agents.IDCICDFailure:   agents.NewCICDFailure(deps.Evidence, deps.Adapter, logger),
		agents.IDInfraAnomaly:  agents.NewInfraAnomaly(deps.Evidence, logger),
		agents.IDIncidentRCA:   agents.NewIncidentRCA(deps.Evidence, deps.KB, deps.Adapter, logger),
	}
	return &Registry{byID: byID}, nil
}

// Agents returns the roster for a stage in execution order.
func (r *Registry) Agents(stage string) ([]agents.Agent, error) {
	ids, ok := stageRosters[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid stages: %s)", ErrUnknownStage, stage, strings.Join(stageList(), ", "))
	}
	roster := make([]agents.Agent, 0, len(ids))
	for _, id := range ids {
		roster = append(roster, r.byID[id])
	}
	return roster, nil
}

// Stages lists the valid stage names, sorted.
func (r *Registry) Stages() []string {
	return stageList()
}

func stageList() []string {
	stages := make([]string, 0, len(stageRosters))
	for stage := range stageRosters {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	return stages
}

var _ Resolver = (*Registry)(nil)
