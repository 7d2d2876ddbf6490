package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// Health statuses reported by the infra-anomaly agent.
const (
	HealthHealthy   = "Healthy"
	HealthUnhealthy = "Unhealthy"
)

// Anomaly thresholds. Percentages for cpu and memory, milliseconds
// for latency, a count for restarts.
const (
	cpuThreshold     = 85.0
	memoryThreshold  = 85.0
	latencyThreshold = 200.0
	restartThreshold = 3
)

// ServiceMetrics is the metrics snapshot the agent evaluates.
type ServiceMetrics struct {
	Service     string  `json:"service"`
	Window      string  `json:"window"`
	CPU         float64 `json:"cpu"`
	Memory      float64 `json:"memory"`
	LatencyMS   float64 `json:"latency_ms"`
	PodRestarts int     `json:"pod_restarts"`
}

// InfraAnomalyFindings is the infra-anomaly agent report payload.
type InfraAnomalyFindings struct {
	Service         string   `json:"service,omitempty"`
	Window          string   `json:"window,omitempty"`
	Anomalies       []string `json:"anomalies"`
	Status          string   `json:"status"`
	Explanation     string   `json:"explanation"`
	Recommendations []string `json:"recommendations"`
}

// InfraAnomaly checks service metrics against fixed thresholds and
// explains what crossed them. It is fully deterministic and needs no
// reasoning adapter.
type InfraAnomaly struct {
	evid   *evidence.Store
	logger *logging.Logger
}

// NewInfraAnomaly creates the infra-anomaly agent.
func NewInfraAnomaly(evid *evidence.Store, logger *logging.Logger) *InfraAnomaly {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &InfraAnomaly{evid: evid, logger: logger}
}

func (a *InfraAnomaly) ID() string { return IDInfraAnomaly }

func (a *InfraAnomaly) Describe() string {
	return "Flags service metrics that crossed health thresholds"
}

func (a *InfraAnomaly) Run(ctx context.Context) Result {
	started := time.Now()
	ctx = logging.WithAgent(ctx, a.ID())

	// Missing or malformed metrics degrade to a zero snapshot, and a
	// zero snapshot crosses no thresholds.
	var metrics ServiceMetrics
	if err := a.evid.JSON(evidence.FileMetrics, &metrics); err != nil {
		a.logger.Warn(ctx, "metrics evidence missing, evaluating empty snapshot", zap.Error(err))
		metrics = ServiceMetrics{}
	}

	anomalies := detectAnomalies(metrics)
	status, explanation, recommendations := interpretAnomalies(anomalies)
	a.logger.Debug(ctx, "metrics evaluated",
		zap.String("status", status), zap.Int("anomalies", len(anomalies)))

	findings := InfraAnomalyFindings{
		Service:         metrics.Service,
		Window:          metrics.Window,
		Anomalies:       anomalies,
		Status:          status,
		Explanation:     explanation,
		Recommendations: recommendations,
	}
	return success(a.ID(), findings, started)
}

func detectAnomalies(m ServiceMetrics) []string {
	var anomalies []string
	if m.CPU > cpuThreshold {
		anomalies = append(anomalies, fmt.Sprintf("CPU usage %g%% exceeds %g%%", m.CPU, cpuThreshold))
	}
	if m.Memory > memoryThreshold {
		anomalies = append(anomalies, fmt.Sprintf("Memory usage %g%% exceeds %g%%", m.Memory, memoryThreshold))
	}
	if m.LatencyMS > latencyThreshold {
		anomalies = append(anomalies, fmt.Sprintf("High latency %g ms", m.LatencyMS))
	}
	if m.PodRestarts > restartThreshold {
		anomalies = append(anomalies, fmt.Sprintf("%d pod restarts detected", m.PodRestarts))
	}
	return anomalies
}

func interpretAnomalies(anomalies []string) (status, explanation string, recommendations []string) {
	if len(anomalies) == 0 {
		return HealthHealthy,
			"System metrics are within normal thresholds.",
			[]string{"Continue monitoring periodically."}
	}

	joined := strings.Join(anomalies, " ")
	var causes []string
	if strings.Contains(joined, "CPU") {
		causes = append(causes, "Possible high workload or tight loop.")
		recommendations = append(recommendations, "Check top CPU pods; consider HPA scaling.")
	}
	if strings.Contains(joined, "Memory") {
		causes = append(causes, "Memory leak or unbounded cache growth.")
		recommendations = append(recommendations, "Review memory limits; restart leaking pods.")
	}
	if strings.Contains(joined, "latency") {
		causes = append(causes, "Network congestion or backend slowdown.")
		recommendations = append(recommendations, "Check downstream service response times.")
	}
	if strings.Contains(joined, "pod restarts") {
		causes = append(causes, "CrashLoop or readiness probe failures.")
		recommendations = append(recommendations, "Inspect pod logs and readiness config.")
	}
	return HealthUnhealthy, strings.Join(causes, " | "), recommendations
}

var _ Agent = (*InfraAnomaly)(nil)
