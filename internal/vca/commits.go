package vca

import (
	"context"
	"strings"
)

// Commit is one enumerated commit: hash, parents, full message body, and
// (for merge commits, when recursion is requested) the sub-commits between
// its first and second parent.
type Commit struct {
	Hash       string
	Parents    []string
	Body       []string
	SubCommits []Commit
}

// ListCommitsOptions controls ListCommits.
type ListCommitsOptions struct {
	FirstParent bool
	Reverse     bool
	NoMerges    bool
	// Recurse enables the second pass: for each merge commit found in the
	// primary history, list parent[0]..parent[1] with --no-merges. This is
	// the explicit two-phase replacement for the source's unbounded
	// recursive get_commits (spec.md §9 DESIGN NOTES).
	Recurse bool
}

// ListCommits enumerates commits in start..end. Each entry carries its
// hash, parents, and full message body; when opts.Recurse is set, merge
// commits additionally carry their second-parent sub-history so callers
// can hunt for a Change-Id trailer that the merge commit's own body lacks.
func (v *VCA) ListCommits(ctx context.Context, start, end string, opts ListCommitsOptions) ([]Commit, error) {
	hashes, err := v.revList(ctx, start, end, opts.FirstParent, opts.Reverse, opts.NoMerges)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(hashes))
	for _, hash := range hashes {
		c, err := v.showCommit(ctx, hash)
		if err != nil {
			return nil, err
		}
		if opts.Recurse && len(c.Parents) > 1 {
			sub, err := v.ListCommits(ctx, c.Parents[0], c.Parents[1], ListCommitsOptions{
				FirstParent: false,
				Reverse:     false,
				NoMerges:    true,
				Recurse:     false,
			})
			if err != nil {
				return nil, err
			}
			c.SubCommits = sub
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func (v *VCA) revList(ctx context.Context, start, end string, firstParent, reverse, noMerges bool) ([]string, error) {
	args := []string{"rev-list"}
	if reverse {
		args = append(args, "--reverse")
	}
	if firstParent {
		args = append(args, "--first-parent")
	}
	if noMerges {
		args = append(args, "--no-merges")
	}
	args = append(args, start+".."+end)

	res, err := v.git(ctx, args...)
	if err != nil {
		return nil, err
	}
	var hashes []string
	for _, line := range res.Stdout {
		if line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes, nil
}

// GetCommitMessage returns the full commit message body of rev.
func (v *VCA) GetCommitMessage(ctx context.Context, rev string) (string, error) {
	res, err := v.git(ctx, "show", "-s", "--pretty=%B", rev)
	if err != nil {
		return "", err
	}
	return strings.Join(res.Stdout, "\n"), nil
}

func (v *VCA) showCommit(ctx context.Context, hash string) (Commit, error) {
	parentsOut, err := v.gitOutput(ctx, "show", "-s", "--pretty=%P", hash)
	if err != nil {
		return Commit{}, err
	}
	var parents []string
	if parentsOut != "" {
		parents = strings.Fields(parentsOut)
	}

	bodyRes, err := v.git(ctx, "show", "-s", "--pretty=%B", hash)
	if err != nil {
		return Commit{}, err
	}

	return Commit{Hash: hash, Parents: parents, Body: bodyRes.Stdout}, nil
}

// ChangeID extracts the Change-Id trailer from a commit's body, recursing
// into the merge commit's second-parent sub-commits (as populated by
// ListCommits with Recurse set) when the commit's own body lacks one.
func (c Commit) ChangeID() (string, bool) {
	if id, ok := changeIDFromBody(c.Body); ok {
		return id, true
	}
	for _, sub := range c.SubCommits {
		if id, ok := sub.ChangeID(); ok {
			return id, true
		}
	}
	return "", false
}

func changeIDFromBody(body []string) (string, bool) {
	const marker = "Change-Id:"
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, marker)), true
		}
	}
	return "", false
}
