package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielecerami/gitnetics/internal/config"
	"github.com/gabrielecerami/gitnetics/internal/logging"
)

func testProjects() config.Projects {
	return config.Projects{
		"alpha": {
			ReplicationStrategy: config.StrategyChangeByChange,
			Original: config.OriginalConfig{
				WatchMethod:   "poll",
				WatchBranches: []string{"master", "stable"},
			},
			Replica: config.ReplicaConfig{BranchMappings: map[string]string{}},
		},
		"beta": {
			ReplicationStrategy: config.StrategyLockAndBackports,
			Original: config.OriginalConfig{
				WatchMethod:   "webhook",
				WatchBranches: []string{"main"},
			},
			Replica: config.ReplicaConfig{BranchMappings: map[string]string{}},
		},
	}
}

func TestApplyFiltersByName(t *testing.T) {
	logger := logging.New()
	selected := applyFilters(testProjects(), Filters{Projects: []string{"alpha"}}, logger)
	assert.Len(t, selected, 1)
	_, ok := selected["alpha"]
	assert.True(t, ok)
}

func TestApplyFiltersByWatchMethod(t *testing.T) {
	logger := logging.New()
	selected := applyFilters(testProjects(), Filters{WatchMethod: "webhook"}, logger)
	assert.Len(t, selected, 1)
	_, ok := selected["beta"]
	assert.True(t, ok)
}

func TestApplyFiltersUnknownNameIsDropped(t *testing.T) {
	logger := logging.New()
	selected := applyFilters(testProjects(), Filters{Projects: []string{"alpha", "ghost"}}, logger)
	assert.Len(t, selected, 1)
}

func TestApplyFiltersByWatchBranchesClonesConfig(t *testing.T) {
	logger := logging.New()
	original := testProjects()
	selected := applyFilters(original, Filters{WatchBranches: []string{"feature-x"}}, logger)

	for name, cfg := range selected {
		assert.Equal(t, []string{"feature-x"}, cfg.Original.WatchBranches, name)
	}
	// The caller's original configuration must be untouched.
	assert.Equal(t, []string{"master", "stable"}, original["alpha"].Original.WatchBranches)
	assert.Equal(t, []string{"main"}, original["beta"].Original.WatchBranches)
}

func TestApplyFiltersNarrowInSequence(t *testing.T) {
	logger := logging.New()
	selected := applyFilters(testProjects(), Filters{
		WatchMethod:   "poll",
		WatchBranches: []string{"release"},
	}, logger)
	assert.Len(t, selected, 1)
	cfg, ok := selected["alpha"]
	assert.True(t, ok)
	assert.Equal(t, []string{"release"}, cfg.Original.WatchBranches)
}

func TestSortedNames(t *testing.T) {
	assert.Equal(t, []string{"alpha", "beta"}, sortedNames(testProjects()))
}

func TestRepoURL(t *testing.T) {
	assert.Equal(t, "https://github.com/acme/widget", repoURL("github.com", "acme/widget"))
}
