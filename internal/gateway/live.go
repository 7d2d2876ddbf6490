package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// Live executes tools over an MCP session to a spawned tool server.
type Live struct {
	session *mcp.ClientSession
	logger  *logging.Logger
}

// Tools implements Gateway.
func (l *Live) Tools(ctx context.Context) ([]string, error) {
	res, err := l.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	names := make([]string, 0, len(res.Tools))
	for _, t := range res.Tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Call implements Gateway.
func (l *Live) Call(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	res, err := l.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      req.Tool,
		Arguments: req.Context,
	})
	if err != nil {
		return ToolResponse{}, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, req.Tool, err)
	}
	if res.IsError {
		return ToolResponse{}, fmt.Errorf("%w: %s: %s", ErrToolUnavailable, req.Tool, textContent(res))
	}

	l.logger.Debug(ctx, "live tool call succeeded", zap.String("tool", req.Tool))

	return ToolResponse{
		Tool:    req.Tool,
		Payload: decodePayload(res),
		Source:  SourceLive,
	}, nil
}

// Source implements Gateway.
func (l *Live) Source() Source { return SourceLive }

// Close implements Gateway. Closing the session shuts down the
// spawned tool server.
func (l *Live) Close() error {
	return l.session.Close()
}

// decodePayload flattens a tool result into a payload map. Structured
// content wins; otherwise the first text block is decoded as JSON, or
// wrapped verbatim when it is not JSON.
func decodePayload(res *mcp.CallToolResult) map[string]any {
	if m, ok := res.StructuredContent.(map[string]any); ok {
		return m
	}
	for _, c := range res.Content {
		tc, ok := c.(*mcp.TextContent)
		if !ok {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(tc.Text), &m); err == nil {
			return m
		}
		return map[string]any{"text": tc.Text}
	}
	return map[string]any{}
}

// textContent joins the text blocks of a result, for error reporting.
func textContent(res *mcp.CallToolResult) string {
	out := ""
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			if out != "" {
				out += "; "
			}
			out += tc.Text
		}
	}
	if out == "" {
		return "tool reported an error"
	}
	return out
}

var _ Gateway = (*Live)(nil)
