// Package synth implements the three recombination synthesis algorithms
// (spec.md §4.4): merge-recombine (M), cherrypick-recombine (C), and
// mutation-recombine (X). Grounded on
// original_source/core/repotypes/git.py's recombine(), translated from raw
// shell string formatting into internal/vca's typed primitives.
package synth

import (
	"context"
	"fmt"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/logging"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// Source is one side (main or patches) of a recombination's inputs.
type Source struct {
	Name     string
	Branch   string
	Revision string
	ID       string
}

// Inputs is the synthesizer's input record, spec.md §4.4's
// meta={main,patches,replication-strategy,[target-replacement-branch],
// [sources.patches.commit-message]}.
type Inputs struct {
	Main                    Source
	Patches                 Source
	ReplicationStrategy     recomb.Strategy
	TargetReplacementBranch string
	PatchesCommitMessage    string
}

// Result is what a successful synthesis produced.
type Result struct {
	RemovedCommits []string
	WasEmpty       bool
}

// Synthesizer runs all three algorithms against one repository handle.
type Synthesizer struct {
	vca            Repo
	replicaRemote  string
	originalRemote string
	logger         *logging.Logger
}

// New builds a Synthesizer over v, scoped to the replica and original
// remote names already registered on v.
func New(v Repo, replicaRemote, originalRemote string, logger *logging.Logger) *Synthesizer {
	return &Synthesizer{vca: v, replicaRemote: replicaRemote, originalRemote: originalRemote, logger: logger}
}

func (s *Synthesizer) encodeAndCommit(ctx context.Context, kind recomb.Kind, in Inputs, removedCommits []string) (bool, error) {
	meta := recomb.RecombinationMeta{
		Sources: recomb.SourcesMeta{
			Main: recomb.SourceMeta{
				Name: in.Main.Name, Branch: in.Main.Branch, Revision: in.Main.Revision, ID: in.Main.ID,
			},
			Patches: recomb.SourceMeta{
				Name: in.Patches.Name, Branch: in.Patches.Branch, Revision: in.Patches.Revision, ID: in.Patches.ID,
				CommitMessage: in.PatchesCommitMessage, RemovedCommits: removedCommits,
			},
		},
		ReplicationStrategy:     in.ReplicationStrategy,
		RecombineStatus:         recomb.RecombineSucceeded,
		TargetReplacementBranch: in.TargetReplacementBranch,
	}
	message, err := recomb.EncodeCommitMessage(kind, meta)
	if err != nil {
		return false, err
	}
	wasEmpty, err := s.vca.CommitWithMessage(ctx, message, true)
	if err != nil {
		return false, err
	}
	if wasEmpty {
		s.logger.Warn(fmt.Sprintf("contents of %s have already been merged upstream; committed an empty recombination", in.Main.Revision))
	}
	return wasEmpty, nil
}

// ScratchBranchName builds the recomb-<kind>-<branch>-<shortrev> name a
// caller should pass as MergeRecombine/CherrypickRecombine/
// MutationRecombine's recombBranch argument.
func ScratchBranchName(kind recomb.Kind, mainBranch, mainRevision string) string {
	return fmt.Sprintf("recomb-%s-%s-%s", kind, mainBranch, recomb.ShortRev(mainRevision))
}

func baseBranchName(patchesBranch, patchesRevision string) string {
	return "recomb-attempt-" + patchesBranch + "-base-" + recomb.ShortRev(patchesRevision)
}

func recombinationFailed(status []string, hint string) error {
	return gniterrors.NewRecombinationFailedError(status, hint)
}
