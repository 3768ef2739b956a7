package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/synth"
)

// PollReplica intakes local diversity patches a developer pushed straight
// to a replica's patches branch, outside the upstream recombination flow:
// when the patches tip differs from the replica tip and no recombination
// exists for that tip yet, it tests the tip as one replica-mutation
// recombination candidate
// (spec.md's supplemented feature, grounded on
// original_source/core/project.py's scan_replica_patches/replica_patch).
func (e *Engine) PollReplica(ctx context.Context, originalBranch string) error {
	bm := recomb.NewBranchMap(originalBranch, e.cfg.Replica.BranchMappings)

	tip, err := e.repo.ResolveRevision(ctx, RemoteReplica+"/"+bm.Replica)
	if err != nil {
		return fmt.Errorf("resolving replica tip %s: %w", bm.Replica, err)
	}
	patchesTip, err := e.repo.ResolveRevision(ctx, RemoteReplica+"/"+bm.Patches)
	if err != nil {
		return fmt.Errorf("resolving patches tip %s: %w", bm.Patches, err)
	}
	if patchesTip == tip {
		return nil
	}

	existing, err := e.rs.GetBy(ctx, rsa.Key{Branch: synth.ScratchBranchName(recomb.KindReplicaMutation, bm.Replica, patchesTip)})
	if err != nil {
		return fmt.Errorf("checking for existing mutation recombination: %w", err)
	}
	if existing != nil {
		return nil
	}

	return e.replicaPatch(ctx, bm, tip, patchesTip)
}

// PollReplicaChange handles one developer-specified patches change by its
// review number directly, bypassing the tip-comparison short-circuit
// PollReplica applies, the `-c CHANGE_ID` entry point spec.md §6 names
// (original_source/core/project.py's new_replica_patch). A number that
// belongs to a different project's review server, or that the review
// server does not recognize, is a silent no-op: the caller tries every
// configured project in turn.
func (e *Engine) PollReplicaChange(ctx context.Context, number string) error {
	change, err := e.rs.GetBy(ctx, rsa.Key{Number: number})
	if err != nil {
		return fmt.Errorf("looking up patches change %s: %w", number, err)
	}
	if change == nil {
		return nil
	}

	for _, originalBranch := range e.cfg.Original.WatchBranches {
		bm := recomb.NewBranchMap(originalBranch, e.cfg.Replica.BranchMappings)
		if bm.Patches != change.Branch {
			continue
		}
		tip, err := e.repo.ResolveRevision(ctx, RemoteReplica+"/"+bm.Replica)
		if err != nil {
			return fmt.Errorf("resolving replica tip %s: %w", bm.Replica, err)
		}
		return e.replicaPatch(ctx, bm, tip, change.Revision)
	}
	return fmt.Errorf("patches change %s: no watched branch maps to patches branch %s", number, change.Branch)
}

// replicaPatch proposes a fresh mutation recombination for one patches
// commit not yet captured by an open recombination.
func (e *Engine) replicaPatch(ctx context.Context, bm recomb.BranchMap, tip, patchesTip string) error {
	branch := synth.ScratchBranchName(recomb.KindReplicaMutation, bm.Replica, patchesTip)

	in := synth.Inputs{
		Main:                synth.Source{Branch: bm.Replica, Revision: tip},
		Patches:             synth.Source{Branch: bm.Patches, Revision: patchesTip},
		ReplicationStrategy: recomb.Strategy(e.cfg.ReplicationStrategy),
	}

	result, err := e.synth.MutationRecombine(ctx, in, branch)
	if err != nil {
		return fmt.Errorf("testing replica mutation for %s: %w", bm.Patches, err)
	}

	body := fmt.Sprintf("Trial merge of local patches branch %s onto %s.", bm.Patches, bm.Replica)
	if len(result.RemovedCommits) > 0 {
		body += "\n\nEvicted:\n" + strings.Join(result.RemovedCommits, "\n")
	}

	_, err = e.rs.Upload(ctx, branch, patchesTip, rsa.UploadOptions{
		Base:  bm.Replica,
		Title: fmt.Sprintf("Recombination: replica-mutation/%s", bm.Replica),
		Body:  body,
	})
	return err
}
