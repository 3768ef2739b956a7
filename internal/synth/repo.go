package synth

import (
	"context"

	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// Repo is the subset of *vca.VCA the synthesizer drives. Defining it here
// (rather than depending on the concrete type) lets tests substitute a
// fake repository instead of shelling out to real git, the same shape as
// the teacher's git.Runner interface backing its swappable realRunner.
type Repo interface {
	Fetch(ctx context.Context, remote string) error
	ResolveRevision(ctx context.Context, ref string) (string, error)
	CreateBranch(ctx context.Context, name, revision string) error
	CheckoutBranch(ctx context.Context, name string) error
	CheckoutParking(ctx context.Context) error
	DeleteBranch(ctx context.Context, name string) error
	DeleteRemoteBranches(ctx context.Context, remote string, names []string) error
	Push(ctx context.Context, remote, localRef, remoteBranch string, force bool) error
	ResetHard(ctx context.Context, ref string) error
	MergeSquash(ctx context.Context, pick, merge string) (bool, error)
	CommitWithMessage(ctx context.Context, message string, allowEmpty bool) (bool, error)
	MergeBase(ctx context.Context, a, b string) (string, error)
	RebaseOntoParent(ctx context.Context, commit string) (bool, error)
	CherryPick(ctx context.Context, commitSHA string) (bool, error)
	MergeCommit(ctx context.Context, message string, heads ...string) error
	PorcelainStatus(ctx context.Context) ([]string, error)
	ListCommits(ctx context.Context, start, end string, opts vca.ListCommitsOptions) ([]vca.Commit, error)
	GetCommitMessage(ctx context.Context, rev string) (string, error)
	AmendMessage(ctx context.Context, message string) error
}
