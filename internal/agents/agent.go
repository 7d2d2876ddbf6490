package agents

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/gateway"
)

// Agent identifiers.
const (
	IDPRReview      = "pr-review"
	IDConfigGate    = "config-gate"
	IDSecurityWatch = "security-watch"
	IDCICDFailure   = "cicd-failure"
	IDInfraAnomaly  = "infra-anomaly"
	IDIncidentRCA   = "incident-rca"
)

// Status of a single agent run.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Result is the envelope every agent returns. A failed result carries
// an error message and no findings; an ok result carries findings and
// no error message.
type Result struct {
	AgentID   string          `json:"agent_id"`
	Status    Status          `json:"status"`
	Findings  any             `json:"findings,omitempty"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Duration  config.Duration `json:"duration"`
}

// Agent analyzes one concern of a pipeline stage.
type Agent interface {
	// ID returns the stable agent identifier used in reports.
	ID() string
	// Describe returns a one-line description for report headers.
	Describe() string
	// Run executes the analysis. It must return a Result even when the
	// analysis fails; only the context ending should cut it short.
	Run(ctx context.Context) Result
}

// ToolSource yields the shared external tool gateway on demand. The
// gateway dials lazily, so agents that never call a tool never pay for
// a connection.
type ToolSource interface {
	Gateway(ctx context.Context) (gateway.Gateway, error)
}

func success(id string, findings any, started time.Time) Result {
	return Result{
		AgentID:   id,
		Status:    StatusOK,
		Findings:  findings,
		StartedAt: started.UTC(),
		Duration:  config.Duration(time.Since(started)),
	}
}

func failure(id string, err error, started time.Time) Result {
	return Result{
		AgentID:   id,
		Status:    StatusFailed,
		Error:     err.Error(),
		StartedAt: started.UTC(),
		Duration:  config.Duration(time.Since(started)),
	}
}
