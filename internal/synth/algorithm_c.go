package synth

import (
	"context"

	"github.com/gabrielecerami/gitnetics/internal/recomb"
)

// CherrypickRecombine implements Algorithm C (spec.md §4.4): instead of a
// three-way merge, cherry-pick the upstream pick commit directly onto the
// patches branch tip, mangling its commit message with an Upstream-<branch>
// trailer and cherry-pick provenance line. Unlike Algorithm M there is no
// eviction loop: a conflict here is reported straight to the caller so it
// can upload the conflicted state for a human to resolve (spec.md boundary
// B2) — the scratch branch pushed before the cherry-pick attempt is left on
// the remote for that upload; it is the caller's job to clean it up if the
// upload itself fails.
func (s *Synthesizer) CherrypickRecombine(ctx context.Context, in Inputs, recombBranch, upstreamURL string) (revision string, err error) {
	if err := s.vca.Fetch(ctx, s.replicaRemote); err != nil {
		return "", err
	}
	if err := s.vca.Fetch(ctx, s.originalRemote); err != nil {
		return "", err
	}

	tip := s.replicaRemote + "/" + in.Patches.Branch
	if err := s.vca.CreateBranch(ctx, recombBranch, tip); err != nil {
		return "", err
	}
	if err := s.vca.Push(ctx, s.replicaRemote, recombBranch, recombBranch, false); err != nil {
		return "", err
	}

	original, err := s.vca.GetCommitMessage(ctx, in.Main.Revision)
	if err != nil {
		return "", err
	}

	conflict, err := s.vca.CherryPick(ctx, in.Main.Revision)
	if err != nil {
		return "", err
	}
	if conflict {
		status, statusErr := s.vca.PorcelainStatus(ctx)
		if statusErr != nil {
			return "", statusErr
		}
		_ = s.vca.CheckoutParking(ctx)
		return "", recombinationFailed(status, "cherry-pick of "+in.Main.Revision+" onto "+in.Patches.Branch+" conflicted")
	}

	mangled := recomb.MangleCherryPickMessage(original, in.Main.Branch, upstreamURL, in.Main.Revision)
	if err := s.vca.AmendMessage(ctx, mangled); err != nil {
		return "", err
	}

	revision, err = s.vca.ResolveRevision(ctx, recombBranch)
	if err != nil {
		return "", err
	}
	if err := s.vca.Push(ctx, s.replicaRemote, recombBranch, in.Patches.Branch, true); err != nil {
		return "", err
	}
	return revision, s.vca.CheckoutParking(ctx)
}
