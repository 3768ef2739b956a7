package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielecerami/gitnetics/internal/config"
	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/synth"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// fakeRepo is an in-memory stand-in for a Repo, scripted per test.
type fakeRepo struct {
	commits         map[string][]vca.Commit // keyed "start..end"
	resolved        map[string]string
	branches        []string
	syncCalls       []string
	updateCalls     []string
	deletedBranches []string
}

func (f *fakeRepo) ResolveRevision(ctx context.Context, ref string) (string, error) {
	if r, ok := f.resolved[ref]; ok {
		return r, nil
	}
	return ref, nil
}
func (f *fakeRepo) ListCommits(ctx context.Context, start, end string, opts vca.ListCommitsOptions) ([]vca.Commit, error) {
	return f.commits[start+".."+end], nil
}
func (f *fakeRepo) ListBranches(ctx context.Context, remote, pattern string) ([]string, error) {
	return f.branches, nil
}
func (f *fakeRepo) SyncReplica(ctx context.Context, remote, replicaBranch, revision string) error {
	f.syncCalls = append(f.syncCalls, replicaBranch+"@"+revision)
	return nil
}
func (f *fakeRepo) UpdateTargetBranch(ctx context.Context, remote, replacementBranch, targetBranch string) error {
	f.updateCalls = append(f.updateCalls, replacementBranch+"->"+targetBranch)
	return nil
}
func (f *fakeRepo) DeleteRemoteBranches(ctx context.Context, remote string, names []string) error {
	f.deletedBranches = append(f.deletedBranches, names...)
	return nil
}
func (f *fakeRepo) AmendMessage(ctx context.Context, message string) error { return nil }

// fakeRSA is an in-memory review server, keyed by topic and number.
type fakeRSA struct {
	byTopic   map[string]*recomb.Change
	byBranch  map[string]*recomb.Change
	uploads   []string
	approves  []string
	submits   []string
	abandons  []string
	comments  map[string][]string
	nextNum   int
}

func newFakeRSA() *fakeRSA {
	return &fakeRSA{
		byTopic:  map[string]*recomb.Change{},
		byBranch: map[string]*recomb.Change{},
		comments: map[string][]string{},
		nextNum:  100,
	}
}

func (f *fakeRSA) GetBy(ctx context.Context, key rsa.Key) (*recomb.Change, error) {
	if key.Topic != "" {
		return f.byTopic[key.Topic], nil
	}
	if key.Branch != "" {
		return f.byBranch[key.Branch], nil
	}
	return nil, nil
}
func (f *fakeRSA) Query(ctx context.Context, topic string) ([]*recomb.Change, error) {
	if c, ok := f.byTopic[topic]; ok {
		return []*recomb.Change{c}, nil
	}
	return nil, nil
}
func (f *fakeRSA) Upload(ctx context.Context, branch, topic string, opts rsa.UploadOptions) (*recomb.Change, error) {
	f.nextNum++
	number := itoa(f.nextNum)
	change := &recomb.Change{
		Branch:  branch,
		Topic:   topic,
		Number:  number,
		Status:  recomb.StatusPresent,
		Subject: opts.Title,
		Body:    opts.Body,
	}
	f.byTopic[topic] = change
	f.byBranch[branch] = change
	f.uploads = append(f.uploads, branch)
	return change, nil
}
func (f *fakeRSA) Approve(ctx context.Context, number string) error {
	f.approves = append(f.approves, number)
	return nil
}
func (f *fakeRSA) Submit(ctx context.Context, number string) error {
	f.submits = append(f.submits, number)
	return nil
}
func (f *fakeRSA) Comment(ctx context.Context, number, body string) error {
	f.comments[number] = append(f.comments[number], body)
	return nil
}
func (f *fakeRSA) Abandon(ctx context.Context, number string) error {
	f.abandons = append(f.abandons, number)
	return nil
}
func (f *fakeRSA) ListComments(ctx context.Context, number string) ([]string, error) {
	return f.comments[number], nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// fakeSynth never conflicts unless cherryConflict is set; every other call
// succeeds cleanly.
type fakeSynth struct {
	merges         []string
	cherries       []string
	muts           []string
	cherryConflict bool
}

func (f *fakeSynth) MergeRecombine(ctx context.Context, in synth.Inputs, recombBranch string) (synth.Result, error) {
	f.merges = append(f.merges, recombBranch)
	return synth.Result{}, nil
}
func (f *fakeSynth) CherrypickRecombine(ctx context.Context, in synth.Inputs, recombBranch, upstreamURL string) (string, error) {
	f.cherries = append(f.cherries, recombBranch)
	if f.cherryConflict {
		return "", gniterrors.NewRecombinationFailedError([]string{"UU file.txt"}, "cherry-pick conflicted")
	}
	return "cherry-revision", nil
}
func (f *fakeSynth) MutationRecombine(ctx context.Context, in synth.Inputs, recombBranch string) (synth.Result, error) {
	f.muts = append(f.muts, recombBranch)
	return synth.Result{}, nil
}

func testConfig() *config.ProjectConfig {
	return &config.ProjectConfig{
		ReplicationStrategy: config.StrategyChangeByChange,
		Original: config.OriginalConfig{
			Type:          "gerrit",
			Location:      "review.example.com",
			Name:          "proj",
			WatchBranches: []string{"master"},
		},
		Replica: config.ReplicaConfig{
			BranchMappings: map[string]string{},
		},
	}
}

func lockAndBackportsConfig() *config.ProjectConfig {
	cfg := testConfig()
	cfg.ReplicationStrategy = config.StrategyLockAndBackports
	return cfg
}

func TestApprovedSegmentsBlockedByPresent(t *testing.T) {
	slices := recomb.Slices{
		recomb.StatusApproved: []recomb.Segment{{Start: 3, End: 4}},
		recomb.StatusPresent:  []recomb.Segment{{Start: 1, End: 2}},
	}
	blocked := approvedSegmentsBlockedByPresent(slices)
	assert.True(t, blocked[0])
}

func TestApprovedSegmentsNotBlockedWhenPresentIsAfter(t *testing.T) {
	slices := recomb.Slices{
		recomb.StatusApproved: []recomb.Segment{{Start: 1, End: 2}},
		recomb.StatusPresent:  []recomb.Segment{{Start: 3, End: 4}},
	}
	blocked := approvedSegmentsBlockedByPresent(slices)
	assert.False(t, blocked[0])
}

func TestScanBranchUploadsMissingRecombination(t *testing.T) {
	repo := &fakeRepo{
		commits: map[string][]vca.Commit{
			"replica/master..original/master": {{Hash: "abc123", Body: []string{"fix", "", "Change-Id: I1"}}},
		},
		resolved: map[string]string{"replica/master-patches": "patchtip"},
	}
	rs := newFakeRSA()
	sy := &fakeSynth{}
	e := New("proj", testConfig(), repo, rs, sy, nil)

	err := e.ScanBranch(context.Background(), "master")
	require.NoError(t, err)

	assert.Len(t, sy.merges, 1)
	assert.Len(t, rs.uploads, 1)
}

func TestScanBranchSubmitsApprovedOriginalDiversity(t *testing.T) {
	repo := &fakeRepo{
		commits: map[string][]vca.Commit{
			"replica/master..original/master": {{Hash: "abc123", Body: []string{"fix", "", "Change-Id: I1"}}},
		},
		resolved: map[string]string{"replica/master-patches": "patchtip"},
	}
	rs := newFakeRSA()
	rs.byTopic["I1"] = &recomb.Change{
		Branch: "recomb-original-diversity-master-abc123",
		Topic:  "I1",
		Number: "200",
		Status: recomb.StatusApproved,
	}
	sy := &fakeSynth{}
	e := New("proj", testConfig(), repo, rs, sy, nil)

	err := e.ScanBranch(context.Background(), "master")
	require.NoError(t, err)

	assert.Contains(t, rs.submits, "200")
	assert.Len(t, repo.syncCalls, 1)
}

func TestScanBranchRejectsHistoryInversion(t *testing.T) {
	repo := &fakeRepo{
		commits: map[string][]vca.Commit{
			"replica/master..original/master": {
				{Hash: "abc123", Body: []string{"fix", "", "Change-Id: I1"}},
				{Hash: "def456", Body: []string{"fix2", "", "Change-Id: I2"}},
			},
		},
		resolved: map[string]string{"replica/master-patches": "patchtip"},
	}
	rs := newFakeRSA()
	rs.byTopic["I1"] = &recomb.Change{Topic: "I1", Number: "201", Status: recomb.StatusMissing}
	rs.byTopic["I2"] = &recomb.Change{Topic: "I2", Number: "202", Status: recomb.StatusApproved}
	sy := &fakeSynth{}
	e := New("proj", testConfig(), repo, rs, sy, nil)

	err := e.ScanBranch(context.Background(), "master")
	assert.Error(t, err)
}

func TestScanBranchUploadsConflictedCherrypickWithBlockedStatusThenDiscards(t *testing.T) {
	repo := &fakeRepo{
		commits: map[string][]vca.Commit{
			"original/locked..original/master": {{Hash: "abc123", Body: []string{"fix", "", "Change-Id: I1"}}},
		},
		resolved: map[string]string{"replica/master-patches": "patchtip"},
	}
	rs := newFakeRSA()
	sy := &fakeSynth{cherryConflict: true}
	cfg := lockAndBackportsConfig()
	cfg.Original.BackportsStart = map[string]string{"master": "locked"}
	e := New("proj", cfg, repo, rs, sy, nil)

	err := e.ScanBranch(context.Background(), "master")
	require.NoError(t, err)

	require.Len(t, rs.uploads, 1)
	change := rs.byTopic["I1"]
	require.NotNil(t, change)
	require.Len(t, rs.comments[change.Number], 1)
	assert.Contains(t, rs.comments[change.Number][0], "Verified:-1")
	assert.Empty(t, repo.deletedBranches)

	// A second scan must decode the BLOCKED status recorded on the
	// uploaded review rather than rebuilding it as a fresh record, so a
	// DISCARD comment posted in the meantime is actually honored.
	rs.comments[change.Number] = append(rs.comments[change.Number], "DISCARD")
	err = e.ScanBranch(context.Background(), "master")
	require.NoError(t, err)
	assert.Contains(t, rs.abandons, change.Number)
}

func TestCleanupDeletesTerminalBranches(t *testing.T) {
	repo := &fakeRepo{branches: []string{"recomb-original-diversity-master-abc", "recomb-original-diversity-master-def"}}
	rs := newFakeRSA()
	rs.byBranch["recomb-original-diversity-master-abc"] = &recomb.Change{Status: recomb.StatusMerged}
	rs.byBranch["recomb-original-diversity-master-def"] = &recomb.Change{Status: recomb.StatusPresent}
	e := New("proj", testConfig(), repo, rs, &fakeSynth{}, nil)

	err := e.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"recomb-original-diversity-master-abc"}, repo.deletedBranches)
}
