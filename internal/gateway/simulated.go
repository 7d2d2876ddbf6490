package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/fixtures"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// Simulated serves deterministic canned payloads from embedded
// fixtures. The same request always yields the same payload.
type Simulated struct {
	logger *logging.Logger
}

// NewSimulated creates a fixture-backed gateway.
func NewSimulated(logger *logging.Logger) *Simulated {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Simulated{logger: logger}
}

// Tools implements Gateway.
func (s *Simulated) Tools(context.Context) ([]string, error) {
	return fixtures.Tools()
}

// Call implements Gateway.
func (s *Simulated) Call(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	raw, err := fixtures.Tool(req.Tool)
	if err != nil {
		return ToolResponse{}, fmt.Errorf("%w: %s", ErrNoFixture, req.Tool)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ToolResponse{}, fmt.Errorf("decoding fixture %s: %w", req.Tool, err)
	}

	s.logger.Debug(ctx, "served tool fixture", zap.String("tool", req.Tool))

	return ToolResponse{
		Tool:    req.Tool,
		Payload: payload,
		Source:  SourceSimulated,
	}, nil
}

// Source implements Gateway.
func (s *Simulated) Source() Source { return SourceSimulated }

// Close implements Gateway.
func (s *Simulated) Close() error { return nil }

var _ Gateway = (*Simulated)(nil)
