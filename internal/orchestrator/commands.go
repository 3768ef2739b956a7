package orchestrator

import (
	"context"

	"github.com/gabrielecerami/gitnetics/internal/rsa"
)

// PollOriginal scans every watched branch of every project, or just
// branchFilter when it is non-empty (`-b BRANCH`, spec.md §6). It does not
// fetch itself: remotes were fetched at bootstrap unless --no-fetch was set.
// Grounded on original_source/core/polymerase.py's poll_original.
func (o *Orchestrator) PollOriginal(ctx context.Context, branchFilter string) error {
	for _, name := range o.names() {
		p := o.projects[name]
		o.logger.Summary().Info("polling original for project %s", name)
		for _, branch := range p.cfg.Original.WatchBranches {
			if branchFilter != "" && branch != branchFilter {
				continue
			}
			if err := p.engine.ScanBranch(ctx, branch); err != nil {
				o.logger.Summary().Error("project %s branch %s: %v", name, branch, err)
			}
		}
	}
	return nil
}

// PollReplica intakes developer patches pushed straight to a patches
// branch. With changeID set, it resolves that one review directly
// (`-c CHANGE_ID`); otherwise it compares every watched branch's patches
// tip against its replica tip, the tip-comparison short-circuit
// Engine.PollReplica applies. Grounded on polymerase.py's poll_replica.
func (o *Orchestrator) PollReplica(ctx context.Context, changeID string) error {
	for _, name := range o.names() {
		p := o.projects[name]
		o.logger.Summary().Info("polling replica for project %s", name)

		if changeID != "" {
			if err := p.engine.PollReplicaChange(ctx, changeID); err != nil {
				o.logger.Summary().Error("project %s: %v", name, err)
			}
			continue
		}

		for _, branch := range p.cfg.Original.WatchBranches {
			if err := p.engine.PollReplica(ctx, branch); err != nil {
				o.logger.Summary().Error("project %s branch %s: %v", name, branch, err)
			}
		}
	}
	return nil
}

// MergeRecombinations re-scans every watched branch looking for APPROVED
// recombinations ready to submit (spec.md's "approved scan"). With
// recombID set, original_source/core/project.py's
// check_approved_recombinations(project_name, recomb_id) takes both a
// project and a recombination id, but the CLI (`-r RECOMB_ID`) only ever
// supplies the id — this port resolves the owning project by searching
// every bootstrapped project's review server for that number, then runs
// that project's full branch sweep rather than a single-record dispatch,
// since nothing short of the sweep can re-derive a record's position in
// its branch's ordered list.
func (o *Orchestrator) MergeRecombinations(ctx context.Context, recombID string) error {
	names := o.names()
	if recombID != "" {
		owner, err := o.findOwner(ctx, recombID)
		if err != nil {
			o.logger.Summary().Error("recombination %s: %v", recombID, err)
			return nil
		}
		if owner == "" {
			o.logger.Summary().Error("recombination %s: not found in any project's review server", recombID)
			return nil
		}
		names = []string{owner}
	}

	for _, name := range names {
		p := o.projects[name]
		o.logger.Summary().Info("merging approved recombinations for project %s", name)
		for _, branch := range p.cfg.Original.WatchBranches {
			if err := p.engine.ScanBranch(ctx, branch); err != nil {
				o.logger.Summary().Error("project %s branch %s: %v", name, branch, err)
			}
		}
	}
	return nil
}

func (o *Orchestrator) findOwner(ctx context.Context, recombID string) (string, error) {
	for _, name := range o.names() {
		change, err := o.projects[name].rs.GetBy(ctx, rsa.Key{Number: recombID})
		if err != nil {
			continue
		}
		if change != nil {
			return name, nil
		}
	}
	return "", nil
}

// Cleanup deletes stale recomb-* scratch branches from the replica and its
// mirror, for every project. Supplemented feature (SPEC_FULL.md), grounded
// on project.py's delete_service_branches/delete_stale_branches.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	for _, name := range o.names() {
		p := o.projects[name]
		o.logger.Summary().Info("cleaning up project %s", name)
		if err := p.engine.Cleanup(ctx); err != nil {
			o.logger.Summary().Error("project %s: cleanup replica: %v", name, err)
		}
		if err := p.engine.CleanupMirror(ctx); err != nil {
			o.logger.Summary().Error("project %s: cleanup mirror: %v", name, err)
		}
	}
	return nil
}
