package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

const (
	clientName    = "stagehand"
	clientVersion = "1.0.0"
)

// Dial selects and constructs the gateway for a run.
//
// ModeSimulated returns the fixture gateway directly. ModeLive dials
// the tool server and fails when it cannot. ModeAuto dials the tool
// server and degrades to fixtures when the dial fails, including when
// the builtin server has no GitHub token to work with.
func Dial(ctx context.Context, cfg Config, logger *logging.Logger) (Gateway, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}

	sim := NewSimulated(logger)

	switch mode {
	case ModeSimulated:
		logger.Info(ctx, "gateway running on simulated tools")
		return sim, nil
	case ModeLive, ModeAuto:
	default:
		return nil, fmt.Errorf("unknown gateway mode %q", cfg.Mode)
	}

	live, err := dialLive(ctx, cfg, logger)
	if err != nil {
		if mode == ModeLive {
			return nil, fmt.Errorf("connecting live gateway: %w", err)
		}
		logger.Warn(ctx, "live gateway unavailable, using simulated tools", zap.Error(err))
		return sim, nil
	}

	return newFailover(live, sim, cfg.CallTimeout, logger), nil
}

// dialLive spawns the tool server and connects an MCP session to it.
func dialLive(ctx context.Context, cfg Config, logger *logging.Logger) (*Live, error) {
	command := cfg.Command
	args := cfg.Args
	if command == "" {
		// The builtin server is useless without a GitHub token, so
		// refuse before spawning anything.
		if cfg.GitHubToken == "" {
			return nil, errors.New("GITHUB_TOKEN not set")
		}
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolving own binary: %w", err)
		}
		command = exe
		args = []string{"tools"}
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = defaultConnectTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()

	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)
	session, err := client.Connect(dialCtx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", command, err)
	}

	logger.Info(ctx, "connected to tool server", zap.String("command", command))

	return &Live{session: session, logger: logger}, nil
}
