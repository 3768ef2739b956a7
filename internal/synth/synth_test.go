package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// fakeRepo is an in-memory stand-in for *vca.VCA, letting the eviction
// loop and commit/push sequencing be exercised without a real git
// subprocess. It scripts a fixed sequence of MergeSquash outcomes.
type fakeRepo struct {
	mergeSquashConflicts []bool // consumed in order, one per MergeSquash call
	mergeSquashCalls     int

	porcelainStatuses [][]string // consumed in order, one per PorcelainStatus call
	porcelainCalls    int

	commits          []vca.Commit
	listCommitsCalls int
	pushes           []string
	commitCount      int

	cherryPickConflicts []bool // consumed in order, one per CherryPick call
	cherryPickCalls     int
	deletedRemote       []string
}

func (f *fakeRepo) Fetch(ctx context.Context, remote string) error             { return nil }
func (f *fakeRepo) ResolveRevision(ctx context.Context, ref string) (string, error) {
	return "resolved-" + ref, nil
}
func (f *fakeRepo) CreateBranch(ctx context.Context, name, revision string) error { return nil }
func (f *fakeRepo) CheckoutBranch(ctx context.Context, name string) error        { return nil }
func (f *fakeRepo) CheckoutParking(ctx context.Context) error                    { return nil }
func (f *fakeRepo) DeleteBranch(ctx context.Context, name string) error          { return nil }
func (f *fakeRepo) DeleteRemoteBranches(ctx context.Context, remote string, names []string) error {
	f.deletedRemote = append(f.deletedRemote, names...)
	return nil
}
func (f *fakeRepo) Push(ctx context.Context, remote, localRef, remoteBranch string, force bool) error {
	f.pushes = append(f.pushes, remoteBranch)
	return nil
}
func (f *fakeRepo) ResetHard(ctx context.Context, ref string) error { return nil }
func (f *fakeRepo) MergeSquash(ctx context.Context, pick, merge string) (bool, error) {
	conflict := f.mergeSquashConflicts[f.mergeSquashCalls]
	f.mergeSquashCalls++
	return conflict, nil
}
func (f *fakeRepo) CommitWithMessage(ctx context.Context, message string, allowEmpty bool) (bool, error) {
	f.commitCount++
	return false, nil
}
func (f *fakeRepo) MergeBase(ctx context.Context, a, b string) (string, error) { return "ancestor", nil }
func (f *fakeRepo) RebaseOntoParent(ctx context.Context, commit string) (bool, error) {
	return false, nil
}
func (f *fakeRepo) CherryPick(ctx context.Context, commitSHA string) (bool, error) {
	if f.cherryPickCalls < len(f.cherryPickConflicts) {
		conflict := f.cherryPickConflicts[f.cherryPickCalls]
		f.cherryPickCalls++
		return conflict, nil
	}
	return false, nil
}
func (f *fakeRepo) MergeCommit(ctx context.Context, message string, heads ...string) error {
	return nil
}
func (f *fakeRepo) PorcelainStatus(ctx context.Context) ([]string, error) {
	status := f.porcelainStatuses[f.porcelainCalls]
	f.porcelainCalls++
	return status, nil
}
func (f *fakeRepo) ListCommits(ctx context.Context, start, end string, opts vca.ListCommitsOptions) ([]vca.Commit, error) {
	f.listCommitsCalls++
	if f.listCommitsCalls > 1 {
		return nil, nil
	}
	return f.commits, nil
}
func (f *fakeRepo) GetCommitMessage(ctx context.Context, rev string) (string, error) {
	return "Fix thing\n\nChange-Id: Ideadbeef\n", nil
}
func (f *fakeRepo) AmendMessage(ctx context.Context, message string) error { return nil }

func testInputs() Inputs {
	return Inputs{
		Main:                Source{Name: "original", Branch: "main", Revision: "abcdef123456"},
		Patches:             Source{Name: "replica", Branch: "main-patches", Revision: "fedcba654321"},
		ReplicationStrategy: recomb.StrategyChangeByChange,
	}
}

func TestMergeRecombineCleanMerge(t *testing.T) {
	f := &fakeRepo{mergeSquashConflicts: []bool{false}}
	s := New(f, "replica", "original", nil)

	result, err := s.MergeRecombine(context.Background(), testInputs(), "recomb-original-main-abcdef")
	require.NoError(t, err)
	assert.Empty(t, result.RemovedCommits)
	assert.Equal(t, 1, f.commitCount)
}

func TestMergeRecombineEvictsOneCommitThenSucceeds(t *testing.T) {
	f := &fakeRepo{
		mergeSquashConflicts: []bool{true, false},
		porcelainStatuses:    [][]string{{"UU file.txt"}},
		commits:              []vca.Commit{{Hash: "deadbeef01"}},
	}
	s := New(f, "replica", "original", nil)

	result, err := s.MergeRecombine(context.Background(), testInputs(), "recomb-original-main-abcdef")
	require.NoError(t, err)
	assert.Equal(t, []string{"deadbeef01"}, result.RemovedCommits)
}

func TestMergeRecombineExhaustsQueueAndFails(t *testing.T) {
	f := &fakeRepo{
		mergeSquashConflicts: []bool{true, true},
		porcelainStatuses:    [][]string{{"UU file.txt"}, {"UU file.txt", "UU other.txt"}},
		commits:              []vca.Commit{{Hash: "deadbeef01"}},
	}
	s := New(f, "replica", "original", nil)

	_, err := s.MergeRecombine(context.Background(), testInputs(), "recomb-original-main-abcdef")
	assert.Error(t, err)
}

func TestCherrypickRecombineClean(t *testing.T) {
	f := &fakeRepo{}
	s := New(f, "replica", "original", nil)

	in := testInputs()
	in.ReplicationStrategy = recomb.StrategyLockAndBackports
	rev, err := s.CherrypickRecombine(context.Background(), in, "recomb-evolution-main-abcdef", "https://upstream.example/repo")
	require.NoError(t, err)
	assert.NotEmpty(t, rev)
}

func TestCherrypickRecombineConflictLeavesScratchBranchPushed(t *testing.T) {
	f := &fakeRepo{
		cherryPickConflicts: []bool{true},
		porcelainStatuses:   [][]string{{"UU file.txt"}},
	}
	s := New(f, "replica", "original", nil)

	in := testInputs()
	in.ReplicationStrategy = recomb.StrategyLockAndBackports
	_, err := s.CherrypickRecombine(context.Background(), in, "recomb-evolution-main-abcdef", "https://upstream.example/repo")

	var failed *gniterrors.RecombinationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, f.pushes, "recomb-evolution-main-abcdef")
	assert.Empty(t, f.deletedRemote)
}

func TestMutationRecombineClean(t *testing.T) {
	f := &fakeRepo{mergeSquashConflicts: []bool{false}}
	s := New(f, "replica", "original", nil)

	in := testInputs()
	in.ReplicationStrategy = recomb.StrategyLockAndBackports
	result, err := s.MutationRecombine(context.Background(), in, "recomb-mutation-main")
	require.NoError(t, err)
	assert.Empty(t, result.RemovedCommits)
}

func TestStatusEqual(t *testing.T) {
	assert.True(t, statusEqual([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, statusEqual([]string{"a"}, []string{"a", "b"}))
	assert.False(t, statusEqual([]string{"a"}, []string{"b"}))
}
