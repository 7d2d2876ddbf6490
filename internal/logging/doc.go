// Package logging provides structured logging for stagehand on top of Zap.
//
// Loggers are context-aware: trace/span IDs and pipeline correlation
// fields (run, stage, agent) stored in the context are attached to every
// entry. Output goes to stdout and, optionally, through the OpenTelemetry
// log bridge.
package logging
