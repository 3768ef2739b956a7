package engine

import (
	"context"
	"fmt"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// ScanBranch runs one watched original branch through the full lifecycle:
// build the interval, slice it by status, then drive every record's state
// machine in MERGED, APPROVED, PRESENT, MISSING order (spec.md §4.5.2-4.5.4).
// Grounded on original_source/core/project.py's scan_original_distance.
func (e *Engine) ScanBranch(ctx context.Context, originalBranch string) error {
	bm := recomb.NewBranchMap(originalBranch, e.cfg.Replica.BranchMappings)

	ordered, err := e.buildRecombinations(ctx, bm)
	if err != nil {
		return fmt.Errorf("building recombination interval for %s: %w", originalBranch, err)
	}

	slices, err := recomb.BuildSlices(originalBranch, ordered)
	if err != nil {
		return err
	}

	// MERGED: project.py only ever looks at the first MERGED segment's
	// final record — everything before it in that segment is already
	// captured by the replica, and there is at most one meaningful sync
	// point per scan.
	if segs := slices[recomb.StatusMerged]; len(segs) > 0 {
		last := segs[0].End - 1
		if err := e.handleMerged(ctx, ordered[last].Recombination, bm); err != nil {
			e.logf("branch %s: merged handler failed: %v", originalBranch, err)
		}
	}

	// §4.5.4: an APPROVED segment preceded by a PRESENT segment means a
	// later change was approved out of order while an earlier one is
	// still pending review; submitting it would violate upstream
	// ordering, so the whole segment is skipped until the PRESENT
	// segment ahead of it clears.
	blocked := approvedSegmentsBlockedByPresent(slices)
	for i, seg := range slices[recomb.StatusApproved] {
		if blocked[i] {
			continue
		}
		for idx := seg.Start; idx < seg.End; idx++ {
			if err := e.handleApproved(ctx, ordered[idx].Recombination, bm); err != nil {
				e.logf("branch %s: approved handler failed for %s: %v", originalBranch, ordered[idx].Topic, err)
			}
		}
	}

	for _, seg := range slices[recomb.StatusPresent] {
		for idx := seg.Start; idx < seg.End; idx++ {
			if err := e.handlePresent(ctx, ordered[idx].Recombination, bm); err != nil {
				e.logf("branch %s: present handler failed for %s: %v", originalBranch, ordered[idx].Topic, err)
			}
		}
	}

	for _, seg := range slices[recomb.StatusMissing] {
		for idx := seg.Start; idx < seg.End; idx++ {
			if err := e.handleMissing(ctx, ordered[idx].Recombination, bm); err != nil {
				e.logf("branch %s: missing handler failed for %s: %v", originalBranch, ordered[idx].Topic, err)
			}
		}
	}

	return nil
}

// approvedSegmentsBlockedByPresent marks every APPROVED segment that has a
// PRESENT segment starting before it in the ordered interval.
func approvedSegmentsBlockedByPresent(slices recomb.Slices) map[int]bool {
	blocked := map[int]bool{}
	presentStarts := make([]int, 0, len(slices[recomb.StatusPresent]))
	for _, seg := range slices[recomb.StatusPresent] {
		presentStarts = append(presentStarts, seg.Start)
	}
	for i, seg := range slices[recomb.StatusApproved] {
		for _, start := range presentStarts {
			if start < seg.Start {
				blocked[i] = true
				break
			}
		}
	}
	return blocked
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(format, args...)
}
