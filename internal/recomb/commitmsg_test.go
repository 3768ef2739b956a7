package recomb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitMessageRoundTrip(t *testing.T) {
	meta := RecombinationMeta{
		Sources: SourcesMeta{
			Main: SourceMeta{
				Name:     "original",
				Branch:   "master",
				Revision: "abcdef1234567890",
				ID:       "I1234567890abcdef",
			},
			Patches: SourceMeta{
				Name:     "patches",
				Branch:   "master-patches",
				Revision: "fedcba0987654321",
				ID:       "fedcba0987654321",
			},
		},
		ReplicationStrategy: StrategyChangeByChange,
		RecombineStatus:     RecombineSucceeded,
		TargetReplacementBranch: "target-original-master-abcdef1234567890",
	}

	message, err := EncodeCommitMessage(KindOriginalDiversity, meta)
	require.NoError(t, err)

	kind, decoded, err := DecodeCommitMessage(message)
	require.NoError(t, err)

	assert.Equal(t, KindOriginalDiversity, kind)
	assert.Equal(t, meta.Sources, decoded.Sources)
	assert.Equal(t, meta.ReplicationStrategy, decoded.ReplicationStrategy)
	assert.Equal(t, meta.RecombineStatus, decoded.RecombineStatus)
	assert.Equal(t, meta.TargetReplacementBranch, decoded.TargetReplacementBranch)
}

func TestEncodeCommitMessageSubjectLine(t *testing.T) {
	meta := RecombinationMeta{
		Sources: SourcesMeta{
			Main:    SourceMeta{Revision: "1234567890ab", Branch: "master"},
			Patches: SourceMeta{Revision: "abcdef123456"},
		},
	}
	message, err := EncodeCommitMessage(KindEvolutionDiversity, meta)
	require.NoError(t, err)

	lines := splitFirstLine(message)
	assert.Equal(t, "Recombination: evolution-diversity:123456-abcdef/master", lines)
}

func splitFirstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

func TestDecodeCommitMessageRejectsMismatchedSubject(t *testing.T) {
	_, _, err := DecodeCommitMessage("Recombination: original-diversity:aaaaaa-bbbbbb/master\n\nsources:\n  main:\n    revision: cccccc\n    branch: master\n  patches:\n    revision: dddddd\n")
	assert.Error(t, err)
}

func TestMangleCherryPickMessage(t *testing.T) {
	original := "Fix the thing\n\nChange-Id: I0123456789abcdef\n"
	mangled := MangleCherryPickMessage(original, "master", "https://review.example.com/123", "deadbeef")

	assert.Contains(t, mangled, "Upstream-master: https://review.example.com/123")
	assert.Contains(t, mangled, "(cherry picked from commit deadbeef)")
}

func TestBuildSlicesMonotonic(t *testing.T) {
	ordered := []OrderedRecombination{
		{Topic: "I1", Recombination: &Recombination{Change: Change{Status: StatusMerged}}},
		{Topic: "I2", Recombination: &Recombination{Change: Change{Status: StatusApproved}}},
		{Topic: "I3", Recombination: &Recombination{Change: Change{Status: StatusPresent}}},
		{Topic: "I4", Recombination: &Recombination{Change: Change{Status: StatusPresent}}},
		{Topic: "I5", Recombination: &Recombination{Change: Change{Status: StatusMissing}}},
	}

	slices, err := BuildSlices("master", ordered)
	require.NoError(t, err)

	assert.Equal(t, []Segment{{Start: 0, End: 1}}, slices[StatusMerged])
	assert.Equal(t, []Segment{{Start: 1, End: 2}}, slices[StatusApproved])
	assert.Equal(t, []Segment{{Start: 2, End: 4}}, slices[StatusPresent])
	assert.Equal(t, []Segment{{Start: 4, End: 5}}, slices[StatusMissing])
}

func TestBuildSlicesViolation(t *testing.T) {
	ordered := []OrderedRecombination{
		{Topic: "I1", Recombination: &Recombination{Change: Change{Status: StatusMerged}}},
		{Topic: "I2", Recombination: &Recombination{Change: Change{Status: StatusMissing}}},
		{Topic: "I3", Recombination: &Recombination{Change: Change{Status: StatusApproved}}},
	}

	_, err := BuildSlices("master", ordered)
	require.Error(t, err)
}
