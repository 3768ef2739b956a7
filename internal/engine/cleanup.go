package engine

import (
	"context"
	"fmt"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
)

// recombBranchPattern matches every scratch branch any of the three
// synthesis algorithms create on the replica remote.
const recombBranchPattern = "recomb-*"

// Cleanup deletes replica scratch branches whose review has already
// reached a terminal state (MERGED or ABANDONED) or has no review at all,
// the service-branch janitor pass grounded on
// original_source/core/project.py's delete_service_branches/
// delete_stale_branches.
func (e *Engine) Cleanup(ctx context.Context) error {
	branches, err := e.repo.ListBranches(ctx, RemoteReplica, recombBranchPattern)
	if err != nil {
		return fmt.Errorf("listing replica scratch branches: %w", err)
	}

	var stale []string
	for _, branch := range branches {
		change, err := e.rs.GetBy(ctx, rsa.Key{Branch: branch})
		if err != nil {
			e.logf("cleanup: checking %s: %v", branch, err)
			continue
		}
		if change == nil || change.Status == recomb.StatusMerged || change.Status == recomb.StatusAbandoned {
			stale = append(stale, branch)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return e.repo.DeleteRemoteBranches(ctx, RemoteReplica, stale)
}

// CleanupMirror unconditionally deletes every recombination scratch branch
// from the replica's read-only GitHub mirror, grounded on
// original_source/core/project.py's delete_service_branches. Unlike
// Cleanup, it does not consult the review server first: the mirror is not
// where reviews live, so there is nothing to check a branch's status
// against, only a target it is safe to always reset.
func (e *Engine) CleanupMirror(ctx context.Context) error {
	branches, err := e.repo.ListBranches(ctx, RemoteMirror, recombBranchPattern)
	if err != nil {
		return fmt.Errorf("listing mirror scratch branches: %w", err)
	}
	if len(branches) == 0 {
		return nil
	}
	return e.repo.DeleteRemoteBranches(ctx, RemoteMirror, branches)
}
