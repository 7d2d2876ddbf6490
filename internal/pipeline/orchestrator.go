package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/agents"
	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/report"
)

const instrumentationName = "github.com/fyrsmithlabs/stagehand/internal/pipeline"

// State of the orchestrator.
type State string

const (
	StateIdle          State = "idle"
	StateStageResolved State = "stage_resolved"
	StateRunning       State = "running"
	StateReporting     State = "reporting"
	StateDone          State = "done"
)

// Resolver resolves a stage name to its agent roster.
type Resolver interface {
	Agents(stage string) ([]agents.Agent, error)
}

// Orchestrator runs one stage roster at a time, sequentially, and
// emits the finished report.
type Orchestrator struct {
	resolver Resolver
	emitter  report.Emitter
	logger   *logging.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	runCounter    metric.Int64Counter
	agentCounter  metric.Int64Counter
	agentDuration metric.Float64Histogram

	mu    sync.Mutex
	state State
}

// NewOrchestrator creates an orchestrator. emitter may be nil when the
// caller only wants the returned report.
func NewOrchestrator(resolver Resolver, emitter report.Emitter, logger *logging.Logger) (*Orchestrator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("stage resolver is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	o := &Orchestrator{
		resolver: resolver,
		emitter:  emitter,
		logger:   logger.Named("pipeline"),
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
		state:    StateIdle,
	}
	o.initMetrics()
	return o, nil
}

func (o *Orchestrator) initMetrics() {
	var err error

	o.runCounter, err = o.meter.Int64Counter(
		"stagehand.pipeline.runs_total",
		metric.WithDescription("Total number of stage runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		o.logger.Warn(context.Background(), "failed to create run counter", zap.Error(err))
	}

	o.agentCounter, err = o.meter.Int64Counter(
		"stagehand.pipeline.agent_runs_total",
		metric.WithDescription("Total number of agent executions by status"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		o.logger.Warn(context.Background(), "failed to create agent counter", zap.Error(err))
	}

	o.agentDuration, err = o.meter.Float64Histogram(
		"stagehand.pipeline.agent_duration_seconds",
		metric.WithDescription("Agent execution duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		o.logger.Warn(context.Background(), "failed to create agent duration histogram", zap.Error(err))
	}
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(ctx context.Context, next State) {
	o.mu.Lock()
	prev := o.state
	o.state = next
	o.mu.Unlock()
	o.logger.Debug(ctx, "state transition",
		zap.String("from", string(prev)), zap.String("to", string(next)))
}

// Run executes the stage and returns its report. The only error
// returned before agents run is an unresolvable stage; after that,
// failures live inside the report and only report emission can error.
func (o *Orchestrator) Run(ctx context.Context, stage string) (*report.StageReport, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(logging.WithStage(ctx, stage), runID)

	ctx, span := o.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("run_id", runID),
	))
	defer span.End()

	o.setState(ctx, StateIdle)
	roster, err := o.resolver.Agents(stage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	o.setState(ctx, StateStageResolved)

	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
	o.logger.Info(ctx, "stage run started", zap.Int("agents", len(roster)))

	o.setState(ctx, StateRunning)
	started := time.Now().UTC()
	results := make([]agents.Result, 0, len(roster))
	for _, agent := range roster {
		results = append(results, o.runAgent(ctx, agent))
	}

	rep := &report.StageReport{
		RunID:      runID,
		Stage:      stage,
		Results:    results,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	o.setState(ctx, StateReporting)
	if o.emitter != nil {
		if err := o.emitter.Emit(ctx, rep); err != nil {
			span.RecordError(err)
			o.setState(ctx, StateDone)
			return rep, fmt.Errorf("emitting report: %w", err)
		}
	}
	o.setState(ctx, StateDone)

	okCount, failedCount := rep.Counts()
	o.logger.Info(ctx, "stage run finished",
		zap.Int("ok", okCount),
		zap.Int("failed", failedCount),
		zap.Duration("took", rep.Duration()))
	return rep, nil
}

// runAgent executes one agent with panic isolation. A panicking agent
// becomes a failed result; it never takes the stage down.
func (o *Orchestrator) runAgent(ctx context.Context, agent agents.Agent) (res agents.Result) {
	ctx, span := o.tracer.Start(ctx, "pipeline.agent", trace.WithAttributes(
		attribute.String("agent", agent.ID()),
	))
	defer span.End()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("agent panicked: %v", r)
			o.logger.Error(ctx, "agent panicked",
				zap.String("agent", agent.ID()), zap.Any("panic", r))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			res = agents.Result{
				AgentID:   agent.ID(),
				Status:    agents.StatusFailed,
				Error:     err.Error(),
				StartedAt: started.UTC(),
				Duration:  config.Duration(time.Since(started)),
			}
		}
		o.recordAgent(ctx, res)
	}()

	o.logger.Info(ctx, "agent started", zap.String("agent", agent.ID()))
	res = agent.Run(ctx)

	if res.Status == agents.StatusFailed {
		span.SetStatus(codes.Error, res.Error)
		o.logger.Warn(ctx, "agent failed",
			zap.String("agent", agent.ID()), zap.String("error", res.Error))
	} else {
		o.logger.Info(ctx, "agent finished",
			zap.String("agent", agent.ID()),
			zap.Duration("took", time.Duration(res.Duration)))
	}
	return res
}

func (o *Orchestrator) recordAgent(ctx context.Context, res agents.Result) {
	attrs := metric.WithAttributes(
		attribute.String("agent", res.AgentID),
		attribute.String("status", string(res.Status)),
	)
	if o.agentCounter != nil {
		o.agentCounter.Add(ctx, 1, attrs)
	}
	if o.agentDuration != nil {
		o.agentDuration.Record(ctx, time.Duration(res.Duration).Seconds(), attrs)
	}
}
