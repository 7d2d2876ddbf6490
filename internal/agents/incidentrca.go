package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/evidence"
	"github.com/fyrsmithlabs/stagehand/internal/kb"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
	"github.com/fyrsmithlabs/stagehand/internal/reasoning"
)

// Fallback strings used when the model returns empty output fields.
const (
	defaultRootCause       = "Unable to determine root cause."
	defaultImpactSummary   = "Impact not determined."
	defaultResolutionSteps = "No resolution steps provided."
	defaultPreventionSteps = "No prevention steps provided."
)

var generateRCASig = reasoning.Signature{
	Name:         "generate_rca",
	Instructions: "You are an incident commander writing a root cause analysis. Use the alert context and, when present, the similar past incidents to produce a precise RCA.",
	Inputs: []reasoning.Field{
		{Name: "infra_context", Desc: "alerts fired during the incident window"},
		{Name: "similar_incidents", Desc: "summaries of similar past incidents"},
	},
	Outputs: []reasoning.Field{
		{Name: "root_cause", Desc: "the root cause of the incident"},
		{Name: "affected_components", Desc: "list of affected services or components"},
		{Name: "impact_summary", Desc: "one-paragraph user and business impact"},
		{Name: "resolution_steps", Desc: "list of steps that resolve the incident"},
		{Name: "prevention_steps", Desc: "list of steps that prevent recurrence"},
	},
}

// IncidentRCAFindings is the incident-rca agent report payload.
type IncidentRCAFindings struct {
	RootCause          string   `json:"root_cause"`
	AffectedComponents []string `json:"affected_components"`
	ImpactSummary      string   `json:"impact_summary"`
	ResolutionSteps    []string `json:"resolution_steps"`
	PreventionSteps    []string `json:"prevention_steps"`
	RelatedIncidents   []string `json:"related_incidents,omitempty"`
}

// IncidentRCA drafts a root cause analysis from the alerts fired
// during an incident window, enriched with similar past incidents
// from the knowledge base when one is configured.
type IncidentRCA struct {
	evid    *evidence.Store
	kb      *kb.Store
	adapter reasoning.Adapter
	logger  *logging.Logger
}

// NewIncidentRCA creates the incident-rca agent. kbStore may be nil to
// skip the similar-incident lookup.
func NewIncidentRCA(evid *evidence.Store, kbStore *kb.Store, adapter reasoning.Adapter, logger *logging.Logger) *IncidentRCA {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &IncidentRCA{evid: evid, kb: kbStore, adapter: adapter, logger: logger}
}

func (a *IncidentRCA) ID() string { return IDIncidentRCA }

func (a *IncidentRCA) Describe() string {
	return "Drafts a root cause analysis from incident alerts and past incident notes"
}

func (a *IncidentRCA) Run(ctx context.Context) Result {
	started := time.Now()
	ctx = logging.WithAgent(ctx, a.ID())

	alerts, err := a.evid.Text(evidence.FileAlerts)
	if err != nil {
		a.logger.Warn(ctx, "alert evidence missing, drafting RCA without alerts", zap.Error(err))
		alerts = ""
	}

	related := a.similarIncidents(ctx, alerts)

	inputs := map[string]any{
		"infra_context":     alerts,
		"similar_incidents": noteSummaries(related),
	}
	out, err := a.adapter.Predict(ctx, generateRCASig, inputs)
	if err != nil {
		return failure(a.ID(), fmt.Errorf("generating RCA: %w", err), started)
	}

	findings := IncidentRCAFindings{
		RootCause:          orDefault(stringField(out, "root_cause"), defaultRootCause),
		AffectedComponents: withDefault(stringsField(out, "affected_components"), []string{"Unknown"}),
		ImpactSummary:      orDefault(stringField(out, "impact_summary"), defaultImpactSummary),
		ResolutionSteps:    withDefault(stringsField(out, "resolution_steps"), []string{defaultResolutionSteps}),
		PreventionSteps:    withDefault(stringsField(out, "prevention_steps"), []string{defaultPreventionSteps}),
		RelatedIncidents:   noteTitles(related),
	}
	return success(a.ID(), findings, started)
}

// similarIncidents queries the knowledge base for incidents resembling
// the current alerts. Lookup failures only cost the enrichment.
func (a *IncidentRCA) similarIncidents(ctx context.Context, alerts string) []kb.Note {
	if a.kb == nil || alerts == "" {
		return nil
	}
	notes, err := a.kb.Query(ctx, alerts)
	if err != nil {
		a.logger.Warn(ctx, "similar incident lookup failed", zap.Error(err))
		return nil
	}
	a.logger.Debug(ctx, "similar incidents found", zap.Int("count", len(notes)))
	return notes
}

func noteSummaries(notes []kb.Note) []string {
	summaries := make([]string, 0, len(notes))
	for _, n := range notes {
		summaries = append(summaries, fmt.Sprintf("%s\n%s", n.Title, n.Content))
	}
	return summaries
}

func noteTitles(notes []kb.Note) []string {
	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	return titles
}

var _ Agent = (*IncidentRCA)(nil)
