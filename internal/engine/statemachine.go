package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/synth"
)

// handleMissing invokes the synthesis algorithm matching rec.Kind and, on
// success, uploads the result as a review. Grounded on
// original_source/core/project.py's scan_original_distance MISSING branch.
func (e *Engine) handleMissing(ctx context.Context, rec *recomb.Recombination, bm recomb.BranchMap) error {
	in := synth.Inputs{
		Main:                    synthSource(rec.Main),
		Patches:                 synthSource(rec.Patches),
		ReplicationStrategy:     rec.Strategy,
		TargetReplacementBranch: rec.TargetReplacementBranch,
	}

	switch rec.Kind {
	case recomb.KindOriginalDiversity:
		result, err := e.synth.MergeRecombine(ctx, in, rec.Branch)
		if err != nil {
			return fmt.Errorf("merge-recombine %s: %w", rec.Topic, err)
		}
		rec.EvictedCommits = result.RemovedCommits
		rec.RecombineStatus = recomb.RecombineSucceeded
		title, body, err := recombinationMessage(rec)
		if err != nil {
			return fmt.Errorf("encoding recombination message for %s: %w", rec.Topic, err)
		}
		_, err = e.rs.Upload(ctx, rec.Branch, rec.Topic, rsa.UploadOptions{
			Base:  bm.Patches,
			Title: title,
			Body:  body,
		})
		return err

	case recomb.KindEvolutionDiversity:
		_, err := e.synth.CherrypickRecombine(ctx, in, rec.Branch, e.originalURL())
		if err != nil {
			var failed *gniterrors.RecombinationFailedError
			if errors.As(err, &failed) {
				return e.uploadConflict(ctx, rec, bm, failed)
			}
			return fmt.Errorf("cherrypick-recombine %s: %w", rec.Topic, err)
		}
		rec.RecombineStatus = recomb.RecombineSucceeded
		title, body, err := recombinationMessage(rec)
		if err != nil {
			return fmt.Errorf("encoding recombination message for %s: %w", rec.Topic, err)
		}
		_, err = e.rs.Upload(ctx, rec.Branch, rec.Topic, rsa.UploadOptions{
			Base:  bm.Patches,
			Title: title,
			Body:  body,
		})
		return err

	case recomb.KindReplicaMutation:
		result, err := e.synth.MutationRecombine(ctx, in, rec.Branch)
		if err != nil {
			return fmt.Errorf("mutation-recombine %s: %w", rec.Topic, err)
		}
		rec.EvictedCommits = result.RemovedCommits
		rec.RecombineStatus = recomb.RecombineSucceeded
		title, body, err := recombinationMessage(rec)
		if err != nil {
			return fmt.Errorf("encoding recombination message for %s: %w", rec.Topic, err)
		}
		_, err = e.rs.Upload(ctx, rec.Branch, rec.Topic, rsa.UploadOptions{
			Base:  bm.Replica,
			Title: title,
			Body:  body,
		})
		return err

	default:
		return fmt.Errorf("unknown recombination kind %q for topic %s", rec.Kind, rec.Topic)
	}
}

// uploadConflict uploads the still-conflicted cherry-pick branch
// CherrypickRecombine left on the remote anyway, so a human can finish it by
// hand, posting the conflict status and the literal resolution instructions
// as a comment (spec.md §9 boundary B2). The review itself records
// recombine-status: BLOCKED, the convention handlePresent later scans a
// DISCARD comment against. Only on an upload failure is the scratch branch
// cleaned up — CherrypickRecombine left it in place expressly so this call
// could use it.
func (e *Engine) uploadConflict(ctx context.Context, rec *recomb.Recombination, bm recomb.BranchMap, failed *gniterrors.RecombinationFailedError) error {
	rec.RecombineStatus = recomb.RecombineBlocked
	title, body, err := recombinationMessage(rec)
	if err != nil {
		return fmt.Errorf("encoding conflicted recombination message for %s: %w", rec.Topic, err)
	}

	change, err := e.rs.Upload(ctx, rec.Branch, rec.Topic, rsa.UploadOptions{
		Base:  bm.Patches,
		Title: title,
		Body:  body,
	})
	if err != nil {
		_ = e.repo.DeleteRemoteBranches(ctx, RemoteReplica, []string{rec.Branch})
		return fmt.Errorf("uploading conflicted cherry-pick %s: %w", rec.Topic, err)
	}

	guidance := fmt.Sprintf(
		"Verified:-1\n\nAutomatic cherry-pick of %s onto %s conflicted. To resolve:\n\n"+
			"  git review -d %s\n  git cherry-pick -x %s\n\n"+
			"then resolve conflicts, commit, and push. Comment DISCARD to abandon this recombination.\n\n"+
			"Conflict status:\n%s\n",
		rec.Main.Revision, rec.Main.Branch, change.Number, rec.Main.Revision, strings.Join(failed.Status, "\n"))
	return e.rs.Comment(ctx, change.Number, guidance)
}

// handlePresent scans for the lock-and-backports DISCARD convention on an
// evolution-diversity recombination blocked on a human decision; everything
// else just sits in review and needs no engine action.
func (e *Engine) handlePresent(ctx context.Context, rec *recomb.Recombination, bm recomb.BranchMap) error {
	if rec.Kind != recomb.KindEvolutionDiversity || rec.RecombineStatus != recomb.RecombineBlocked {
		return nil
	}
	comments, err := e.rs.ListComments(ctx, rec.Number)
	if err != nil {
		return fmt.Errorf("listing comments on %s: %w", rec.Number, err)
	}
	for _, c := range comments {
		// uploadConflict's own guidance comment names DISCARD too; it is
		// not a decision, so it is skipped.
		if strings.HasPrefix(c, "Verified:-1\n\nAutomatic cherry-pick of ") {
			continue
		}
		if strings.Contains(c, "DISCARD") {
			return e.rs.Abandon(ctx, rec.Number)
		}
	}
	return nil
}

// handleApproved advances an approved recombination toward MERGED: sync the
// replica and target-replacement branch for original-diversity, chase or
// propose a backport for evolution-diversity, or submit the originating
// patches change first for replica-mutation (spec.md §4.5.3).
func (e *Engine) handleApproved(ctx context.Context, rec *recomb.Recombination, bm recomb.BranchMap) error {
	switch rec.Kind {
	case recomb.KindOriginalDiversity:
		if err := e.repo.SyncReplica(ctx, RemoteReplica, bm.Replica, rec.Main.Revision); err != nil {
			return fmt.Errorf("syncing replica %s: %w", bm.Replica, err)
		}
		if rec.TargetReplacementBranch != "" {
			if err := e.repo.UpdateTargetBranch(ctx, RemoteReplica, rec.TargetReplacementBranch, bm.Target); err != nil {
				return fmt.Errorf("updating target branch %s: %w", bm.Target, err)
			}
		}
		return e.rs.Submit(ctx, rec.Number)

	case recomb.KindEvolutionDiversity:
		return e.handleApprovedBackport(ctx, rec, bm)

	case recomb.KindReplicaMutation:
		if rec.Patches.Status != recomb.StatusMerged {
			if err := e.rs.Approve(ctx, rec.Patches.Number); err != nil {
				return fmt.Errorf("approving originating patches change %s: %w", rec.Patches.Number, err)
			}
			if err := e.rs.Submit(ctx, rec.Patches.Number); err != nil {
				return fmt.Errorf("submitting originating patches change %s: %w", rec.Patches.Number, err)
			}
		}
		if err := e.repo.UpdateTargetBranch(ctx, RemoteReplica, rec.Branch, bm.Target); err != nil {
			return fmt.Errorf("updating target branch %s: %w", bm.Target, err)
		}
		return e.rs.Submit(ctx, rec.Number)

	default:
		return fmt.Errorf("unknown recombination kind %q for topic %s", rec.Kind, rec.Topic)
	}
}

// handleApprovedBackport implements spec.md S5: once a lock-and-backports
// evolution change is approved, a backport proposal re-applying the same
// patches onto the current replica tip is polled to completion, or
// proposed for the first time if none is outstanding yet.
func (e *Engine) handleApprovedBackport(ctx context.Context, rec *recomb.Recombination, bm recomb.BranchMap) error {
	if rec.BackportID != "" {
		backport, err := e.rs.GetBy(ctx, rsa.Key{Number: rec.BackportID})
		if err != nil {
			return fmt.Errorf("polling backport %s: %w", rec.BackportID, err)
		}
		if backport == nil {
			rec.BackportID = ""
		} else {
			switch backport.Status {
			case recomb.StatusMerged:
				return e.rs.Submit(ctx, rec.Number)
			case recomb.StatusAbandoned:
				return e.rs.Abandon(ctx, rec.Number)
			default:
				return nil
			}
		}
	}

	branch := synth.ScratchBranchName(recomb.KindReplicaMutation, bm.Replica, rec.Patches.Revision)
	result, err := e.synth.MutationRecombine(ctx, synth.Inputs{
		Main:                synthSource(&recomb.Change{Branch: bm.Replica, Revision: rec.Patches.Revision}),
		Patches:             synthSource(rec.Patches),
		ReplicationStrategy: rec.Strategy,
	}, branch)
	if err != nil {
		return fmt.Errorf("proposing backport for %s: %w", rec.Topic, err)
	}
	_ = result
	backport, err := e.rs.Upload(ctx, branch, rec.Topic+"-backport", rsa.UploadOptions{
		Base:  bm.Replica,
		Title: backportTitle(rec),
		Body:  "Backport proposal for " + rec.Topic,
	})
	if err != nil {
		return fmt.Errorf("uploading backport for %s: %w", rec.Topic, err)
	}
	rec.BackportID = backport.Number
	return e.repo.AmendMessage(ctx, fmt.Sprintf("record backport-id %s for %s", backport.Number, rec.Topic))
}

// handleMerged finalizes a merged original-diversity recombination; for
// lock-and-backports nothing tracks the replica tip off of individual
// merges, so it is a no-op there.
func (e *Engine) handleMerged(ctx context.Context, rec *recomb.Recombination, bm recomb.BranchMap) error {
	if rec.Strategy != recomb.StrategyChangeByChange {
		return nil
	}
	if err := e.repo.SyncReplica(ctx, RemoteReplica, bm.Replica, rec.Main.Revision); err != nil {
		return fmt.Errorf("syncing replica %s: %w", bm.Replica, err)
	}
	if rec.TargetReplacementBranch == "" {
		return nil
	}
	return e.repo.UpdateTargetBranch(ctx, RemoteReplica, rec.TargetReplacementBranch, bm.Target)
}

func synthSource(c *recomb.Change) synth.Source {
	if c == nil {
		return synth.Source{}
	}
	return synth.Source{Branch: c.Branch, Revision: c.Revision, ID: c.ID}
}

// recombinationMessage derives a review's title/body from
// recomb.EncodeCommitMessage's own output — the subject line as Title, the
// YAML document as Body — rather than a hand-built human string, so the
// review itself carries exactly the reconstruction data spec.md §6
// requires and lookupOrCreate's decode path can read back (P3).
func recombinationMessage(rec *recomb.Recombination) (title, body string, err error) {
	meta := recomb.RecombinationMeta{
		Sources: recomb.SourcesMeta{
			Main: recomb.SourceMeta{
				Name: rec.Main.Branch, Branch: rec.Main.Branch, Revision: rec.Main.Revision, ID: rec.Main.ID,
			},
			Patches: recomb.SourceMeta{
				Name: rec.Patches.Branch, Branch: rec.Patches.Branch, Revision: rec.Patches.Revision, ID: rec.Patches.ID,
				RemovedCommits: rec.EvictedCommits,
			},
		},
		ReplicationStrategy:     rec.Strategy,
		RecombineStatus:         rec.RecombineStatus,
		TargetReplacementBranch: rec.TargetReplacementBranch,
	}
	message, err := recomb.EncodeCommitMessage(rec.Kind, meta)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(message, "\n\n", 2)
	if len(parts) < 2 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// backportTitle names a backport proposal; unlike a recombination's own
// review, spec.md's §6 format does not govern this human-facing title.
func backportTitle(rec *recomb.Recombination) string {
	return fmt.Sprintf("Backport: %s onto %s", rec.Topic, rec.Main.Branch)
}
