package gateway

import (
	"context"
	"errors"
	"time"
)

// Source reports where a tool payload came from.
type Source string

const (
	// SourceLive marks payloads produced by a real MCP tool server.
	SourceLive Source = "live"
	// SourceSimulated marks payloads served from embedded fixtures.
	SourceSimulated Source = "simulated"
)

// Gateway operating modes.
const (
	// ModeAuto tries a live connection and degrades to fixtures.
	ModeAuto = "auto"
	// ModeLive requires a live connection and fails without one.
	ModeLive = "live"
	// ModeSimulated serves fixtures only.
	ModeSimulated = "simulated"
)

// Default timeouts.
const (
	defaultConnectTimeout = 5 * time.Second
	defaultCallTimeout    = 10 * time.Second
)

var (
	// ErrToolUnavailable indicates a tool could not be executed by any
	// backend.
	ErrToolUnavailable = errors.New("tool unavailable")

	// ErrNoFixture indicates no embedded payload exists for a tool.
	ErrNoFixture = errors.New("no fixture for tool")
)

// ToolRequest asks the gateway to execute one named tool.
type ToolRequest struct {
	// Tool is the tool name, e.g. "get_pull_request".
	Tool string
	// Context carries the tool arguments.
	Context map[string]any
}

// ToolResponse carries a tool result and its provenance.
//
// Source is always truthful: a response assembled from fixtures says
// so even when the gateway was dialed in live mode.
type ToolResponse struct {
	Tool    string         `json:"tool"`
	Payload map[string]any `json:"payload"`
	Source  Source         `json:"source"`
}

// Config controls gateway construction.
type Config struct {
	// Mode selects the backend: ModeAuto, ModeLive or ModeSimulated.
	// Empty means ModeAuto.
	Mode string
	// Command is the MCP tool server to spawn. Empty uses the builtin
	// server, which needs a GitHub token.
	Command string
	// Args are passed to Command.
	Args []string
	// ConnectTimeout bounds the initial dial.
	ConnectTimeout time.Duration
	// CallTimeout bounds a single live tool call before falling back.
	CallTimeout time.Duration
	// GitHubToken authenticates the builtin tool server.
	GitHubToken string
}

// Gateway executes named tools for agents.
type Gateway interface {
	// Tools lists the names of the available tools.
	Tools(ctx context.Context) ([]string, error)
	// Call executes one tool and returns its payload with provenance.
	Call(ctx context.Context, req ToolRequest) (ToolResponse, error)
	// Source reports the backend the gateway was selected with.
	// Individual responses may still differ when calls fall back.
	Source() Source
	// Close releases the backend, including any spawned tool server.
	Close() error
}
