package vca

import (
	"context"
	"os/exec"
	"strings"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
)

// MergeSquash attempts `git merge --squash --no-commit pick merge` against
// the currently checked-out branch. Returns conflict=true (not an error) on
// a merge conflict, so the synthesizer's eviction loop can inspect
// PorcelainStatus and retry.
func (v *VCA) MergeSquash(ctx context.Context, pick, merge string) (conflict bool, err error) {
	res, err := v.git(ctx, "merge", "--squash", "--no-commit", pick, merge)
	if err == nil {
		return false, nil
	}
	if isExitError(err) {
		return true, nil
	}
	return false, gniterrors.NewMergeError(merge, strings.Join(res.Stderr, "\n"))
}

// CommitWithMessage commits currently staged changes with message. If the
// commit would be empty (the squash merge produced no diff, e.g. content
// already merged twice upstream) and allowEmpty is set, it retries with
// --allow-empty; the caller is responsible for logging the resulting
// warning, since only it knows this is expected/benign.
func (v *VCA) CommitWithMessage(ctx context.Context, message string, allowEmpty bool) (wasEmpty bool, err error) {
	res, err := v.git(ctx, "commit", "-m", message)
	if err == nil {
		return false, nil
	}
	if allowEmpty && containsNothingToCommit(res.Stdout) {
		if _, err := v.git(ctx, "commit", "--allow-empty", "-m", message); err != nil {
			return false, gniterrors.NewCommandError("git commit --allow-empty", nil, "", "", err)
		}
		return true, nil
	}
	return false, gniterrors.NewCommandError("git commit", nil, "", strings.Join(res.Stderr, "\n"), err)
}

// AmendMessage rewrites HEAD's commit message without changing its tree,
// used by cherrypick-recombine to apply the Upstream-<branch> trailer
// mangling after a clean cherry-pick.
func (v *VCA) AmendMessage(ctx context.Context, message string) error {
	if _, err := v.git(ctx, "commit", "--amend", "-m", message); err != nil {
		return gniterrors.NewCommandError("git commit --amend", nil, "", "", err)
	}
	return nil
}

func containsNothingToCommit(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, "nothing to commit") {
			return true
		}
	}
	return false
}

// ResetHard resets the current branch's index and working tree to ref,
// discarding an abandoned conflicted merge attempt.
func (v *VCA) ResetHard(ctx context.Context, ref string) error {
	_, err := v.git(ctx, "reset", "--hard", ref)
	return err
}

// MergeBase returns the merge base of two revisions.
func (v *VCA) MergeBase(ctx context.Context, a, b string) (string, error) {
	return v.gitOutput(ctx, "merge-base", a, b)
}

// IsAncestor reports whether ancestor is an ancestor of (or equal to)
// descendant.
func (v *VCA) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := v.git(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	if isExitError(err) {
		return false, nil
	}
	return false, err
}

// RebaseOntoParent rebases the currently checked-out branch so that commit
// is dropped from its history: `git rebase -p --onto commit^ commit`. This
// is the patch-eviction primitive used by Algorithm M's conflict loop.
// Returns conflict=true on a rebase conflict.
func (v *VCA) RebaseOntoParent(ctx context.Context, commit string) (conflict bool, err error) {
	res, err := v.git(ctx, "rebase", "-p", "--onto", commit+"^", commit)
	if err == nil {
		return false, nil
	}
	if isExitError(err) {
		_, _ = v.git(ctx, "rebase", "--abort")
		return true, nil
	}
	return false, gniterrors.NewCommandError("git rebase -p --onto", nil, "", strings.Join(res.Stderr, "\n"), err)
}

// CherryPick cherry-picks commitSHA onto the currently checked-out branch
// with -x (recording provenance in the commit message). Returns
// conflict=true on a conflict, aborting the cherry-pick before returning.
func (v *VCA) CherryPick(ctx context.Context, commitSHA string) (conflict bool, err error) {
	res, err := v.git(ctx, "cherry-pick", "-x", commitSHA)
	if err == nil {
		return false, nil
	}
	if isExitError(err) {
		_, _ = v.git(ctx, "cherry-pick", "--abort")
		return true, nil
	}
	return false, gniterrors.NewCommandError("git cherry-pick -x", nil, "", strings.Join(res.Stderr, "\n"), err)
}

// MergeCommit creates a real (non-squash) merge commit of heads into the
// currently checked-out branch, used by Algorithm M's target-replacement
// branch construction.
func (v *VCA) MergeCommit(ctx context.Context, message string, heads ...string) error {
	args := append([]string{"merge", "--no-ff", "-m", message}, heads...)
	if _, err := v.git(ctx, args...); err != nil {
		return gniterrors.NewMergeError(strings.Join(heads, ","), err.Error())
	}
	return nil
}

func isExitError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr *gniterrors.CommandError
	if asCommandError(err, &cmdErr) {
		var exitErr *exec.ExitError
		return asExecExitError(cmdErr.Err, &exitErr)
	}
	return false
}

// asCommandError and asExecExitError are tiny local errors.As helpers kept
// here (rather than importing the stdlib errors package under a second
// name) to avoid clashing with this file's gniterrors import alias.
func asCommandError(err error, target **gniterrors.CommandError) bool {
	ce, ok := err.(*gniterrors.CommandError)
	if ok {
		*target = ce
	}
	return ok
}

func asExecExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
