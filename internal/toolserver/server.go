package toolserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v57/github"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// Config configures the tool server.
type Config struct {
	// Name is the server implementation name.
	Name string
	// Version is the server version.
	Version string
	// Token authenticates against GitHub. Required.
	Token string
	// Owner is the default repository owner for calls that omit one.
	Owner string
	// Repo is the default repository name for calls that omit one.
	Repo string
}

// DefaultConfig returns sensible defaults. The token still has to be
// filled in.
func DefaultConfig() Config {
	return Config{
		Name:    "stagehand-tools",
		Version: "1.0.0",
	}
}

// Server serves GitHub-backed tools over MCP.
type Server struct {
	mcp     *mcp.Server
	gh      *github.Client
	owner   string
	repo    string
	metrics *Metrics
	logger  *logging.Logger
}

// NewServer creates the tool server and registers its tools.
func NewServer(ctx context.Context, cfg Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "stagehand-tools"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	gh, err := NewGitHubClient(ctx, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	s := &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    cfg.Name,
				Version: cfg.Version,
			},
			nil,
		),
		gh:      gh,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		metrics: NewMetrics(logger),
		logger:  logger,
	}
	s.registerTools()

	return s, nil
}

// Run serves tools on the stdio transport until ctx is canceled or
// the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting tool server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("tool server run failed: %w", err)
	}
	return nil
}

// resolveRepo applies the configured defaults to a call's owner/repo.
func (s *Server) resolveRepo(owner, repo string) (string, string, error) {
	if owner == "" {
		owner = s.owner
	}
	if repo == "" {
		repo = s.repo
	}
	if owner == "" || repo == "" {
		return "", "", errors.New("owner and repo required: pass them in the call or set GITHUB_REPOSITORY")
	}
	return owner, repo, nil
}
