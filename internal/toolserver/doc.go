// Package toolserver implements the builtin MCP tool server.
//
// It runs on the stdio transport and exposes GitHub-backed tools
// (get_pull_request, list_issues) to the gateway. The server requires
// a GitHub token; the gateway refuses to spawn it without one and
// serves fixtures instead.
package toolserver
