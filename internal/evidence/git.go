// internal/evidence/git.go
package evidence

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// HeadDiff returns the patch between HEAD and its first parent for a
// local repository, along with the current branch name. Failures are
// ErrMissing: an unreadable repo degrades the agent, it never fails it.
func HeadDiff(repoPath string) (branch, patch string, err error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: open repo %s: %v", ErrMissing, repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("%w: resolve HEAD: %v", ErrMissing, err)
	}
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", "", fmt.Errorf("%w: read HEAD commit: %v", ErrMissing, err)
	}
	if commit.NumParents() == 0 {
		// Root commit has nothing to diff against.
		return branch, "", nil
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return "", "", fmt.Errorf("%w: read parent commit: %v", ErrMissing, err)
	}

	p, err := parent.Patch(commit)
	if err != nil {
		return "", "", fmt.Errorf("%w: compute patch: %v", ErrMissing, err)
	}

	return branch, p.String(), nil
}
