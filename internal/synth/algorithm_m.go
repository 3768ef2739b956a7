package synth

import (
	"context"
	"fmt"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// MergeRecombine implements Algorithm M (spec.md §4.4): a three-way squash
// merge of the upstream pick onto the replica's patches branch, with a
// patch-eviction loop on conflict. On success, the commit lands on
// recombBranch and recombBranch has been force-pushed to the replica
// remote; HEAD is left on parking.
func (s *Synthesizer) MergeRecombine(ctx context.Context, in Inputs, recombBranch string) (Result, error) {
	if err := s.vca.Fetch(ctx, s.replicaRemote); err != nil {
		return Result{}, err
	}
	if err := s.vca.Fetch(ctx, s.originalRemote); err != nil {
		return Result{}, err
	}

	pick := in.Main.Revision
	merge := in.Patches.Revision
	start, err := s.vca.ResolveRevision(ctx, pick+"~1")
	if err != nil {
		return Result{}, err
	}

	baseBranch := baseBranchName(in.Patches.Branch, in.Patches.Revision)
	if err := s.vca.CreateBranch(ctx, baseBranch, merge); err != nil {
		return Result{}, err
	}
	if err := s.vca.CreateBranch(ctx, recombBranch, start); err != nil {
		return Result{}, err
	}
	if err := s.vca.Push(ctx, s.replicaRemote, recombBranch, recombBranch, false); err != nil {
		return Result{}, err
	}

	conflict, err := s.vca.MergeSquash(ctx, pick, merge)
	if err != nil {
		return Result{}, err
	}

	if !conflict {
		if err := s.finishMergeRecombine(ctx, in, recombBranch, baseBranch, start, merge, nil); err != nil {
			return Result{}, err
		}
		return Result{}, s.vca.CheckoutParking(ctx)
	}

	removed, err := s.runEvictionLoop(ctx, in, recombBranch, baseBranch, start, pick, merge)
	if err != nil {
		_ = s.vca.DeleteRemoteBranches(ctx, s.replicaRemote, []string{recombBranch})
		return Result{}, err
	}
	return Result{RemovedCommits: removed}, s.vca.CheckoutParking(ctx)
}

// runEvictionLoop is the automatic conflict-resolution loop: it drops
// patches commits one at a time (oldest first) and retries the squash
// merge until it's clean or the queue of evictable commits is exhausted.
// Grounded on original_source/core/repotypes/git.py's recombine().
func (s *Synthesizer) runEvictionLoop(ctx context.Context, in Inputs, recombBranch, baseBranch, start, pick, merge string) ([]string, error) {
	ancestor, err := s.vca.MergeBase(ctx, pick, merge)
	if err != nil {
		return nil, err
	}
	queue, err := s.evictionQueue(ctx, ancestor, s.replicaRemote+"/"+in.Patches.Branch)
	if err != nil {
		return nil, err
	}

	prevStatus, err := s.vca.PorcelainStatus(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	attempt := 1

	for conflict := true; conflict && len(queue) > 0; {
		attempt++
		next := queue[0]
		queue = queue[1:]

		if err := s.vca.ResetHard(ctx, recombBranch); err != nil {
			return nil, err
		}
		if err := s.vca.CheckoutBranch(ctx, baseBranch); err != nil {
			return nil, err
		}
		retryBranch := fmt.Sprintf("recomb-attempt-%s-retry-%d", in.Patches.Branch, attempt)
		if err := s.vca.CreateBranch(ctx, retryBranch, baseBranch); err != nil {
			return nil, err
		}

		rebaseConflict, err := s.vca.RebaseOntoParent(ctx, next)
		if err != nil {
			return nil, err
		}
		if rebaseConflict {
			// This commit can't be cleanly dropped either; discard the
			// attempt and move on to the next candidate.
			_ = s.vca.DeleteBranch(ctx, retryBranch)
			continue
		}

		retryMerge, err := s.vca.ResolveRevision(ctx, retryBranch)
		if err != nil {
			return nil, err
		}
		if err := s.vca.CheckoutBranch(ctx, recombBranch); err != nil {
			return nil, err
		}

		mergeConflict, err := s.vca.MergeSquash(ctx, pick, retryMerge)
		if err != nil {
			return nil, err
		}

		if !mergeConflict {
			removed = append(removed, next)
			if err := s.finishMergeRecombine(ctx, in, recombBranch, baseBranch, start, retryMerge, removed); err != nil {
				return nil, err
			}
			if err := s.vca.Push(ctx, s.replicaRemote, retryBranch, in.Patches.Branch, true); err != nil {
				return nil, err
			}
			_ = s.vca.DeleteBranch(ctx, retryBranch)
			return removed, nil
		}

		newStatus, err := s.vca.PorcelainStatus(ctx)
		if err != nil {
			return nil, err
		}
		if !statusEqual(prevStatus, newStatus) {
			removed = append(removed, next)
			prevStatus = newStatus
			_ = s.vca.DeleteBranch(ctx, baseBranch)
			if err := s.vca.CreateBranch(ctx, baseBranch, retryMerge); err != nil {
				return nil, err
			}
			nextQueue, err := s.evictionQueue(ctx, ancestor, retryBranch)
			if err != nil {
				return nil, err
			}
			queue = nextQueue
		}
		_ = s.vca.DeleteBranch(ctx, retryBranch)
	}

	return nil, gniterrors.NewRecombinationFailedError(prevStatus,
		fmt.Sprintf("automatic conflict resolution exhausted the eviction queue for %s onto %s", in.Patches.Branch, in.Main.Branch))
}

func (s *Synthesizer) evictionQueue(ctx context.Context, ancestor, end string) ([]string, error) {
	commits, err := s.vca.ListCommits(ctx, ancestor, end, vca.ListCommitsOptions{Reverse: true, FirstParent: true})
	if err != nil {
		return nil, err
	}
	hashes := make([]string, 0, len(commits))
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
	}
	return hashes, nil
}

func statusEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// finishMergeRecombine commits the clean squash merge and, for
// change-by-change strategy, builds the target-replacement branch as a
// real merge commit of pick and finalPatchesRevision.
func (s *Synthesizer) finishMergeRecombine(ctx context.Context, in Inputs, recombBranch, baseBranch, start, finalPatchesRevision string, removed []string) error {
	if _, err := s.encodeAndCommit(ctx, recomb.KindOriginalDiversity, in, removed); err != nil {
		return err
	}

	if in.ReplicationStrategy == recomb.StrategyChangeByChange && in.TargetReplacementBranch != "" {
		if err := s.vca.CreateBranch(ctx, in.TargetReplacementBranch, start); err != nil {
			return err
		}
		message := fmt.Sprintf("Merge %s and %s", in.Main.Name, in.Patches.Name)
		if err := s.vca.MergeCommit(ctx, message, in.Main.Revision, finalPatchesRevision); err != nil {
			return err
		}
		if err := s.vca.Push(ctx, s.replicaRemote, in.TargetReplacementBranch, in.TargetReplacementBranch, true); err != nil {
			return err
		}
	}

	if err := s.vca.Push(ctx, s.replicaRemote, recombBranch, recombBranch, true); err != nil {
		return err
	}
	_ = s.vca.DeleteBranch(ctx, baseBranch)
	return nil
}
