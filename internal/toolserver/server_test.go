package toolserver

import (
	"context"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerRequiresToken(t *testing.T) {
	_, err := NewServer(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token not set")
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(context.Background(), Config{Token: "test-token", Owner: "acme", Repo: "shop"}, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestResolveRepo(t *testing.T) {
	s := &Server{owner: "acme", repo: "shop"}

	owner, repo, err := s.resolveRepo("", "")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "shop", repo)

	owner, repo, err = s.resolveRepo("other", "svc")
	require.NoError(t, err)
	assert.Equal(t, "other", owner)
	assert.Equal(t, "svc", repo)
}

func TestResolveRepoUnconfigured(t *testing.T) {
	s := &Server{}

	_, _, err := s.resolveRepo("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner and repo required")
}

func TestSplitRepository(t *testing.T) {
	owner, repo, err := SplitRepository("acme/shop")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "shop", repo)

	for _, slug := range []string{"", "acme", "/shop", "acme/"} {
		_, _, err := SplitRepository(slug)
		assert.Error(t, err, "slug %q", slug)
	}
}

func TestConvertFiles(t *testing.T) {
	files := []*github.CommitFile{
		{
			Filename:  github.String("services/payment/db.py"),
			Status:    github.String("modified"),
			Additions: github.Int(58),
			Deletions: github.Int(12),
		},
	}

	out := convertFiles(files)
	require.Len(t, out, 1)
	assert.Equal(t, pullRequestFile{
		Filename:  "services/payment/db.py",
		Status:    "modified",
		Additions: 58,
		Deletions: 12,
	}, out[0])
}

func TestConvertIssuesSkipsPullRequests(t *testing.T) {
	issues := []*github.Issue{
		{
			Number: github.Int(318),
			Title:  github.String("Intermittent 502 from payment gateway"),
			State:  github.String("open"),
			Labels: []*github.Label{{Name: github.String("incident")}, {Name: github.String("sev2")}},
		},
		{
			Number:           github.Int(319),
			Title:            github.String("a pull request, not an issue"),
			PullRequestLinks: &github.PullRequestLinks{},
		},
	}

	out := convertIssues(issues, 10)
	require.Len(t, out, 1)
	assert.Equal(t, 318, out[0].Number)
	assert.Equal(t, []string{"incident", "sev2"}, out[0].Labels)
	assert.Equal(t, "open", out[0].State)
}

func TestConvertIssuesLimit(t *testing.T) {
	issues := []*github.Issue{
		{Number: github.Int(1)},
		{Number: github.Int(2)},
		{Number: github.Int(3)},
	}

	out := convertIssues(issues, 2)
	assert.Len(t, out, 2)
}
