// Package agents implements the analysis agents of the stagehand
// pipeline. Each agent gathers its own evidence, optionally consults
// the reasoning adapter, and returns a single Result.
//
// Agents never abort a stage: every failure mode maps to a failed
// Result so the orchestrator can keep running the rest of the roster.
// Missing evidence degrades to empty inputs and unavailable tools fall
// back to simulated fixtures. A disabled or erroring reasoning adapter
// fails only the agents that depend on it.
package agents
