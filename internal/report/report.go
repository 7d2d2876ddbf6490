package report

import (
	"context"
	"errors"
	"time"

	"github.com/fyrsmithlabs/stagehand/internal/agents"
)

// StageReport is the complete output of one pipeline run. It always
// carries one result per agent in the stage roster, failed agents
// included.
type StageReport struct {
	RunID      string          `json:"run_id"`
	Stage      string          `json:"stage"`
	Results    []agents.Result `json:"results"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r *StageReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts tallies results by status.
func (r *StageReport) Counts() (ok, failed int) {
	for _, res := range r.Results {
		if res.Status == agents.StatusOK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// Emitter delivers a finished stage report.
type Emitter interface {
	Emit(ctx context.Context, rep *StageReport) error
}

// Multi fans a report out to every emitter and joins their failures.
// One broken sink does not silence the others.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, rep *StageReport) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, rep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
