package synth

import (
	"context"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// MutationRecombine implements Algorithm X (spec.md §4.4): a trial squash
// merge of a local patches change onto the current replica branch tip.
// It follows Algorithm M's clean-merge path (commit, push the scratch
// branch) but builds no target-replacement branch and never enters the
// eviction loop — a replica-mutation change is already local to the
// replica, so there is no upstream divergence to resolve away.
func (s *Synthesizer) MutationRecombine(ctx context.Context, in Inputs, recombBranch string) (Result, error) {
	if err := s.vca.Fetch(ctx, s.replicaRemote); err != nil {
		return Result{}, err
	}

	tip := s.replicaRemote + "/" + in.Main.Branch
	if err := s.vca.CreateBranch(ctx, recombBranch, tip); err != nil {
		return Result{}, err
	}
	if err := s.vca.Push(ctx, s.replicaRemote, recombBranch, recombBranch, false); err != nil {
		return Result{}, err
	}

	conflict, err := s.vca.MergeSquash(ctx, in.Patches.Revision, tip)
	if err != nil {
		return Result{}, err
	}
	if conflict {
		status, statusErr := s.vca.PorcelainStatus(ctx)
		if statusErr != nil {
			return Result{}, statusErr
		}
		_ = s.vca.DeleteRemoteBranches(ctx, s.replicaRemote, []string{recombBranch})
		_ = s.vca.CheckoutParking(ctx)
		return Result{}, recombinationFailed(status, "trial merge of "+in.Patches.Revision+" onto "+in.Main.Branch+" conflicted")
	}

	if _, err := s.encodeAndCommit(ctx, recomb.KindReplicaMutation, in, nil); err != nil {
		return Result{}, err
	}
	if err := s.vca.Push(ctx, s.replicaRemote, recombBranch, recombBranch, true); err != nil {
		return Result{}, err
	}
	return Result{}, s.vca.CheckoutParking(ctx)
}
