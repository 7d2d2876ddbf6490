package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// failover prefers the live gateway and falls back to fixtures when a
// live call fails or times out. The fallback is per call; one broken
// tool does not force the rest of the run onto fixtures.
type failover struct {
	live        Gateway
	sim         Gateway
	callTimeout time.Duration
	logger      *logging.Logger
}

func newFailover(live, sim Gateway, callTimeout time.Duration, logger *logging.Logger) *failover {
	if callTimeout == 0 {
		callTimeout = defaultCallTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &failover{
		live:        live,
		sim:         sim,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Tools implements Gateway.
func (f *failover) Tools(ctx context.Context) ([]string, error) {
	names, err := f.live.Tools(ctx)
	if err != nil {
		f.logger.Warn(ctx, "live tool listing failed, using fixtures", zap.Error(err))
		return f.sim.Tools(ctx)
	}
	return names, nil
}

// Call implements Gateway.
func (f *failover) Call(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.callTimeout)
	resp, liveErr := f.live.Call(callCtx, req)
	cancel()
	if liveErr == nil {
		return resp, nil
	}

	f.logger.Warn(ctx, "live tool call failed, falling back to fixture",
		zap.String("tool", req.Tool),
		zap.Error(liveErr))

	resp, simErr := f.sim.Call(ctx, req)
	if simErr != nil {
		return ToolResponse{}, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, req.Tool, errors.Join(liveErr, simErr))
	}
	return resp, nil
}

// Source implements Gateway. Responses carry their own per-call
// provenance.
func (f *failover) Source() Source { return SourceLive }

// Close implements Gateway.
func (f *failover) Close() error {
	return f.live.Close()
}

var _ Gateway = (*failover)(nil)
