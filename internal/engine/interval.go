package engine

import (
	"context"
	"fmt"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/synth"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// buildRecombinations enumerates one watched original branch's history
// since its replica's last-known position, matching every commit against
// its review-server record by topic. A commit with no matching record
// becomes a freshly-minted MISSING Recombination (spec.md §4.5.1).
// Grounded on original_source/core/project.py's get_recombinations_by_interval.
func (e *Engine) buildRecombinations(ctx context.Context, bm recomb.BranchMap) ([]recomb.OrderedRecombination, error) {
	start := RemoteReplica + "/" + bm.Replica
	end := RemoteOriginal + "/" + bm.Original

	opts := vca.ListCommitsOptions{Reverse: true}
	kind := recomb.KindOriginalDiversity
	if e.cfg.ReplicationStrategy == string(recomb.StrategyLockAndBackports) {
		kind = recomb.KindEvolutionDiversity
		opts.FirstParent = false
		opts.NoMerges = true
		if locked, ok := e.cfg.Original.BackportsStart[bm.Original]; ok {
			start = RemoteOriginal + "/" + locked
		}
	} else {
		opts.FirstParent = true
	}
	opts.Recurse = true

	commits, err := e.repo.ListCommits(ctx, start, end, opts)
	if err != nil {
		return nil, fmt.Errorf("listing commits %s..%s: %w", start, end, err)
	}

	patchesRevision, err := e.repo.ResolveRevision(ctx, RemoteReplica+"/"+bm.Patches)
	if err != nil {
		return nil, fmt.Errorf("resolving patches branch %s: %w", bm.Patches, err)
	}

	ordered := make([]recomb.OrderedRecombination, 0, len(commits))
	for _, c := range commits {
		id, ok := c.ChangeID()
		if !ok || e.cfg.Original.Type == "git" {
			id = c.Hash
		}

		rec, err := e.lookupOrCreate(ctx, kind, bm, c.Hash, id, patchesRevision)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, recomb.OrderedRecombination{Topic: id, Recombination: rec})
	}
	return ordered, nil
}

// lookupOrCreate resolves one upstream commit to its existing recombination
// record, if the review server already has one under this topic, or mints a
// new MISSING one otherwise.
func (e *Engine) lookupOrCreate(ctx context.Context, kind recomb.Kind, bm recomb.BranchMap, commitHash, topic, patchesRevision string) (*recomb.Recombination, error) {
	change, err := e.rs.GetBy(ctx, rsa.Key{Topic: topic})
	if err != nil {
		return nil, fmt.Errorf("querying review server for topic %s: %w", topic, err)
	}

	main := &recomb.Change{Branch: bm.Original, Revision: commitHash, ID: topic, Topic: topic}
	patches := &recomb.Change{Branch: bm.Patches, Revision: patchesRevision}

	strategy := recomb.Strategy(e.cfg.ReplicationStrategy)
	branch := synth.ScratchBranchName(kind, bm.Original, commitHash)

	var targetReplacementBranch string
	if strategy == recomb.StrategyChangeByChange {
		targetReplacementBranch = "replica-" + bm.Original + "-" + recomb.ShortRev(commitHash)
	}

	if change != nil {
		rec := &recomb.Recombination{
			Change:                  *change,
			Kind:                    kind,
			Main:                    main,
			Patches:                 patches,
			Strategy:                strategy,
			TargetReplacementBranch: targetReplacementBranch,
		}
		e.restoreRecombineMetadata(rec, change)
		return rec, nil
	}

	return &recomb.Recombination{
		Change: recomb.Change{
			Branch: branch,
			Topic:  topic,
			Status: recomb.StatusMissing,
		},
		Kind:                    kind,
		Main:                    main,
		Patches:                 patches,
		Strategy:                strategy,
		TargetReplacementBranch: targetReplacementBranch,
	}, nil
}

// restoreRecombineMetadata decodes an existing review's commit-message
// metadata (its title as the subject line, its body as the YAML document,
// per spec.md §6) back into rec, so a loaded review's kind,
// recombine-status, evicted-commits list, and target-replacement branch
// reflect what was actually recorded rather than the zero value. Decode
// failures are logged at debug level and left as the zero-value fields:
// review servers may hold unrelated PRs briefly visible under a topic
// label, and an engine scan must not fail outright over one of them.
func (e *Engine) restoreRecombineMetadata(rec *recomb.Recombination, change *recomb.Change) {
	decodedKind, meta, err := recomb.DecodeCommitMessage(change.Subject + "\n\n" + change.Body)
	if err != nil {
		if e.logger != nil {
			e.logger.Debug("decoding recombination metadata for %s: %v", change.Topic, err)
		}
		return
	}
	rec.Kind = decodedKind
	rec.RecombineStatus = meta.RecombineStatus
	rec.EvictedCommits = meta.Sources.Patches.RemovedCommits
	if meta.TargetReplacementBranch != "" {
		rec.TargetReplacementBranch = meta.TargetReplacementBranch
	}
}
