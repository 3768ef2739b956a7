package rsa

import (
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovedThreshold(t *testing.T) {
	assert.True(t, approved(map[string]int{LabelCodeReview: 2, LabelVerified: 1}))
	assert.False(t, approved(map[string]int{LabelCodeReview: 2, LabelVerified: 0}))
	assert.False(t, approved(map[string]int{LabelCodeReview: 1, LabelVerified: 1}))
	assert.False(t, approved(map[string]int{}))
}

func TestTopicFromLabels(t *testing.T) {
	labels := []*github.Label{
		{Name: github.String("bug")},
		{Name: github.String("topic:Ideadbeef")},
	}
	assert.Equal(t, "Ideadbeef", topicFromLabels(labels))
}

func TestTopicFromLabelsAbsent(t *testing.T) {
	labels := []*github.Label{{Name: github.String("bug")}}
	assert.Equal(t, "", topicFromLabels(labels))
}

func TestTopicLabel(t *testing.T) {
	assert.Equal(t, "topic:Ideadbeef", topicLabel("Ideadbeef"))
}

func TestParsePRNumber(t *testing.T) {
	n, err := parsePRNumber("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = parsePRNumber("not-a-number")
	assert.Error(t, err)
}

func TestParseGitHubRemoteURLHTTPS(t *testing.T) {
	info, err := ParseGitHubRemoteURL("https://github.com/acme/widgets.git")
	require.NoError(t, err)
	assert.Equal(t, "github.com", info.Hostname)
	assert.Equal(t, "acme", info.Owner)
	assert.Equal(t, "widgets", info.Repo)
}

func TestParseGitHubRemoteURLSSH(t *testing.T) {
	info, err := ParseGitHubRemoteURL("git@github.com:acme/widgets.git")
	require.NoError(t, err)
	assert.Equal(t, "github.com", info.Hostname)
	assert.Equal(t, "acme", info.Owner)
	assert.Equal(t, "widgets", info.Repo)
}

func TestParseGitHubRemoteURLEnterprise(t *testing.T) {
	info, err := ParseGitHubRemoteURL("https://github.acme.internal/acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "github.acme.internal", info.Hostname)
	assert.Equal(t, "acme", info.Owner)
	assert.Equal(t, "widgets", info.Repo)
}

func TestParseGitHubRemoteURLInvalid(t *testing.T) {
	_, err := ParseGitHubRemoteURL("not-a-url")
	assert.Error(t, err)
}
