package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielecerami/gitnetics/internal/config"
)

func TestBuildTestMatrixOwnTestsOnly(t *testing.T) {
	cfg := &config.ProjectConfig{
		Replica: config.ReplicaConfig{Tests: []string{"unit", "integration"}},
	}
	tests := buildTestMatrix("widget", "123", cfg)

	require.Contains(t, tests, "widget")
	assert.Equal(t, filepath.Join("widget", "123", "results", "unit", "widget_results.xml"), tests["widget"].Types["unit"])
	assert.Equal(t, filepath.Join("widget", "123", "results", "integration", "widget_results.xml"), tests["widget"].Types["integration"])
}

func TestBuildTestMatrixIncludesRevDeps(t *testing.T) {
	cfg := &config.ProjectConfig{
		Replica: config.ReplicaConfig{Tests: []string{"unit"}},
		RevDeps: map[string]config.RevDep{
			"downstream": {Tags: []string{"smoke"}},
		},
	}
	tests := buildTestMatrix("widget", "123", cfg)

	require.Contains(t, tests, "downstream")
	assert.Equal(t,
		filepath.Join("widget", "123", "results", "smoke", "downstream_results.xml"),
		tests["downstream"].Types["smoke"])
}

func TestBuildTestMatrixNoTestsIsEmpty(t *testing.T) {
	tests := buildTestMatrix("widget", "123", &config.ProjectConfig{})
	assert.Empty(t, tests)
}

func TestNestUnderCode(t *testing.T) {
	dir := t.TempDir()
	recombDir := filepath.Join(dir, "42")
	require.NoError(t, os.MkdirAll(recombDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(recombDir, "README.md"), []byte("hi"), 0o640))

	require.NoError(t, nestUnderCode(recombDir))

	data, err := os.ReadFile(filepath.Join(recombDir, "code", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vars.yaml")
	vars := RecombVars{
		TargetProject:    "widget",
		RecombinationDir: filepath.Join("widget", "42", "code"),
		RecombinationID:  "42",
		Tests: map[string]ProjectTests{
			"widget": {Types: map[string]string{"unit": "widget/42/results/unit/widget_results.xml"}},
		},
	}
	require.NoError(t, writeYAML(path, vars))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target_project: widget")
	assert.Contains(t, string(data), "recombination_id: \"42\"")
}
