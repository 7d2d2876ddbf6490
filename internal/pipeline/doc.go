// Package pipeline resolves stages to agent rosters and runs them.
// The orchestrator walks Idle -> StageResolved -> Running ->
// Reporting -> Done; an unknown stage is the only fatal error, and it
// fires before any agent runs. Agent failures, panics included, are
// isolated into failed results so a report always carries one result
// per rostered agent.
package pipeline
