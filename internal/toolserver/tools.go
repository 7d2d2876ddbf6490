package toolserver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_pull_request",
		Description: "Fetch a pull request with its changed files and unified diff",
	}, s.handleGetPullRequest)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_issues",
		Description: "List repository issues, optionally filtered by state and labels",
	}, s.handleListIssues)
}

// ===== get_pull_request =====

type pullRequestFile struct {
	Filename  string `json:"filename" jsonschema:"Changed file path"`
	Status    string `json:"status" jsonschema:"added, modified or removed"`
	Additions int    `json:"additions" jsonschema:"Added line count"`
	Deletions int    `json:"deletions" jsonschema:"Deleted line count"`
}

type getPullRequestInput struct {
	Owner  string `json:"owner,omitempty" jsonschema:"Repository owner (defaults to the server's configured owner)"`
	Repo   string `json:"repo,omitempty" jsonschema:"Repository name (defaults to the server's configured repo)"`
	Number int    `json:"number" jsonschema:"required,Pull request number"`
}

type getPullRequestOutput struct {
	Number int               `json:"number" jsonschema:"Pull request number"`
	Title  string            `json:"title" jsonschema:"Pull request title"`
	Author string            `json:"author" jsonschema:"Login of the author"`
	Branch string            `json:"branch" jsonschema:"Head branch"`
	Base   string            `json:"base" jsonschema:"Base branch"`
	Body   string            `json:"body" jsonschema:"Pull request description"`
	Files  []pullRequestFile `json:"files" jsonschema:"Changed files"`
	Diff   string            `json:"diff" jsonschema:"Unified diff"`
}

func (s *Server) handleGetPullRequest(ctx context.Context, _ *mcp.CallToolRequest, args getPullRequestInput) (*mcp.CallToolResult, getPullRequestOutput, error) {
	start := time.Now()
	var toolErr error
	defer func() {
		s.metrics.Record(ctx, "get_pull_request", time.Since(start), toolErr)
	}()

	owner, repo, err := s.resolveRepo(args.Owner, args.Repo)
	if err != nil {
		toolErr = err
		return nil, getPullRequestOutput{}, err
	}

	pr, _, err := s.gh.PullRequests.Get(ctx, owner, repo, args.Number)
	if err != nil {
		toolErr = err
		return nil, getPullRequestOutput{}, fmt.Errorf("fetching pull request: %w", err)
	}

	files, err := s.listPullRequestFiles(ctx, owner, repo, args.Number)
	if err != nil {
		toolErr = err
		return nil, getPullRequestOutput{}, err
	}

	// Diff is best effort; the rest of the tool output stands alone.
	diff, _, err := s.gh.PullRequests.GetRaw(ctx, owner, repo, args.Number, github.RawOptions{Type: github.Diff})
	if err != nil {
		s.logger.Warn(ctx, "pull request diff unavailable",
			zap.Int("number", args.Number),
			zap.Error(err))
		diff = ""
	}

	out := getPullRequestOutput{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Author: pr.GetUser().GetLogin(),
		Branch: pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
		Body:   pr.GetBody(),
		Files:  files,
		Diff:   diff,
	}

	s.logger.Debug(ctx, "served pull request",
		zap.Int("number", args.Number),
		zap.Int("files", len(files)))

	return nil, out, nil
}

func (s *Server) listPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]pullRequestFile, error) {
	opts := &github.ListOptions{PerPage: 100}
	var all []*github.CommitFile
	for {
		files, resp, err := s.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull request files: %w", err)
		}
		all = append(all, files...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return convertFiles(all), nil
}

// convertFiles maps GitHub commit files to the tool output shape.
func convertFiles(files []*github.CommitFile) []pullRequestFile {
	out := make([]pullRequestFile, 0, len(files))
	for _, f := range files {
		out = append(out, pullRequestFile{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}
	return out
}

// ===== list_issues =====

type issueSummary struct {
	Number int      `json:"number" jsonschema:"Issue number"`
	Title  string   `json:"title" jsonschema:"Issue title"`
	Labels []string `json:"labels" jsonschema:"Label names"`
	State  string   `json:"state" jsonschema:"open or closed"`
}

type listIssuesInput struct {
	Owner  string   `json:"owner,omitempty" jsonschema:"Repository owner (defaults to the server's configured owner)"`
	Repo   string   `json:"repo,omitempty" jsonschema:"Repository name (defaults to the server's configured repo)"`
	State  string   `json:"state,omitempty" jsonschema:"Filter by state: open, closed or all (default open)"`
	Labels []string `json:"labels,omitempty" jsonschema:"Filter by label names"`
	Limit  int      `json:"limit,omitempty" jsonschema:"Maximum issues to return (default 20)"`
}

type listIssuesOutput struct {
	Total  int            `json:"total" jsonschema:"Number of issues returned"`
	Issues []issueSummary `json:"issues" jsonschema:"Matching issues"`
}

func (s *Server) handleListIssues(ctx context.Context, _ *mcp.CallToolRequest, args listIssuesInput) (*mcp.CallToolResult, listIssuesOutput, error) {
	start := time.Now()
	var toolErr error
	defer func() {
		s.metrics.Record(ctx, "list_issues", time.Since(start), toolErr)
	}()

	owner, repo, err := s.resolveRepo(args.Owner, args.Repo)
	if err != nil {
		toolErr = err
		return nil, listIssuesOutput{}, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}
	state := args.State
	if state == "" {
		state = "open"
	}

	opts := &github.IssueListByRepoOptions{
		State:       state,
		Labels:      args.Labels,
		ListOptions: github.ListOptions{PerPage: min(limit, 100)},
	}

	var issues []issueSummary
	for len(issues) < limit {
		page, resp, err := s.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			toolErr = err
			return nil, listIssuesOutput{}, fmt.Errorf("listing issues: %w", err)
		}
		issues = append(issues, convertIssues(page, limit-len(issues))...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	s.logger.Debug(ctx, "served issues",
		zap.String("state", state),
		zap.Int("count", len(issues)))

	return nil, listIssuesOutput{Total: len(issues), Issues: issues}, nil
}

// convertIssues maps GitHub issues to the tool output shape, dropping
// pull requests and stopping at limit.
func convertIssues(issues []*github.Issue, limit int) []issueSummary {
	out := make([]issueSummary, 0, len(issues))
	for _, is := range issues {
		// The issues API also returns pull requests.
		if is.IsPullRequest() {
			continue
		}
		labels := make([]string, 0, len(is.Labels))
		for _, l := range is.Labels {
			labels = append(labels, l.GetName())
		}
		out = append(out, issueSummary{
			Number: is.GetNumber(),
			Title:  is.GetTitle(),
			Labels: labels,
			State:  is.GetState(),
		})
		if len(out) == limit {
			break
		}
	}
	return out
}
