package toolserver

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/stagehand/internal/toolserver"

// Metrics instruments tool invocations.
type Metrics struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
	errors      metric.Int64Counter
}

// NewMetrics creates the tool server metrics. Instrument creation
// failures are logged and leave the instrument nil; recording methods
// tolerate that.
func NewMetrics(logger *logging.Logger) *Metrics {
	if logger == nil {
		logger = logging.NewNop()
	}
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}

	var err error
	m.invocations, err = meter.Int64Counter(
		"stagehand.tool.invocations_total",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		logger.Warn(context.Background(), "failed to create invocations counter")
	}

	m.duration, err = meter.Float64Histogram(
		"stagehand.tool.duration_seconds",
		metric.WithDescription("Duration of tool invocations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		logger.Warn(context.Background(), "failed to create duration histogram")
	}

	m.errors, err = meter.Int64Counter(
		"stagehand.tool.errors_total",
		metric.WithDescription("Total number of tool errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		logger.Warn(context.Background(), "failed to create errors counter")
	}

	return m
}

// Record records one tool invocation.
func (m *Metrics) Record(ctx context.Context, tool string, took time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))

	if m.invocations != nil {
		m.invocations.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, took.Seconds(), attrs)
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}
