// Package gateway gives agents one door to external tools.
//
// A Gateway executes named tools and stamps every response with its
// true provenance: live when the payload came from an MCP tool server,
// simulated when it came from embedded fixtures. The failover gateway
// prefers live calls and falls back to fixtures per call, so one slow
// or broken tool never takes down a whole run. Provider defers the
// dial until an agent actually asks for a tool.
package gateway
