// Package config loads the multi-project YAML configuration that drives
// gitnetics: one entry per managed project, naming its original and replica
// sources, watched branches, replication strategy, and test dependencies.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OriginalConfig describes the upstream repository being tracked.
type OriginalConfig struct {
	Type           string            `yaml:"type"`
	Location       string            `yaml:"location"`
	Name           string            `yaml:"name"`
	WatchMethod    string            `yaml:"watch-method"`
	WatchBranches  []string          `yaml:"watch-branches"`
	BackportsStart map[string]string `yaml:"backports-start,omitempty"`
}

// ReplicaConfig describes the downstream repository mirroring original plus
// local patches.
type ReplicaConfig struct {
	Location             string            `yaml:"location"`
	Name                  string            `yaml:"name"`
	BranchMappings        map[string]string `yaml:"branch-mappings,omitempty"`
	Mirror                string            `yaml:"mirror,omitempty"`
	RefLocks              map[string]string `yaml:"ref-locks,omitempty"`
	Tests                 []string          `yaml:"tests,omitempty"`
	SuccessReviewersList  []string          `yaml:"success_reviewers_list,omitempty"`
}

// ProjectConfig is one project's entry in the projects configuration file.
type ProjectConfig struct {
	DeployName           string                 `yaml:"deploy-name"`
	ReplicationStrategy   string                `yaml:"replication-strategy"`
	Original             OriginalConfig         `yaml:"original"`
	Replica              ReplicaConfig          `yaml:"replica"`
	TestDeps             map[string][]string    `yaml:"test-deps,omitempty"`

	// RevDeps is not read from YAML; it is computed by invert from every
	// other project's TestDeps, the reverse-dependency inversion Load
	// performs once at load time.
	RevDeps map[string]RevDep `yaml:"-"`
}

// RevDep is the inverse of a TestDeps entry: a project that depends on this
// one for testing, and which tags/tests it exercises.
type RevDep struct {
	Tags  []string
	Tests []string
}

// Replication strategies (spec.md §6).
const (
	StrategyChangeByChange  = "change-by-change"
	StrategyLockAndBackports = "lock-and-backports"
)

// Projects is the top-level projects configuration: project name -> config.
type Projects map[string]*ProjectConfig

// Load reads and parses a projects configuration file, then computes the
// reverse-dependency map.
func Load(path string) (Projects, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading projects config: %w", err)
	}

	var projects Projects
	if err := yaml.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parsing projects config YAML: %w", err)
	}

	if err := validate(projects); err != nil {
		return nil, err
	}

	invert(projects)
	return projects, nil
}

func validate(projects Projects) error {
	for name, p := range projects {
		if p.ReplicationStrategy != StrategyChangeByChange && p.ReplicationStrategy != StrategyLockAndBackports {
			return fmt.Errorf("project %s: replication-strategy must be %q or %q, got %q",
				name, StrategyChangeByChange, StrategyLockAndBackports, p.ReplicationStrategy)
		}
		if p.Original.WatchBranches == nil {
			p.Original.WatchBranches = []string{}
		}
		if p.Replica.BranchMappings == nil {
			p.Replica.BranchMappings = map[string]string{}
		}
	}
	return nil
}

// invert populates every project's RevDeps field from the rest of the
// projects' TestDeps declarations, ported from polymerase.py's reverse
// dependency extraction.
func invert(projects Projects) {
	for _, p := range projects {
		p.RevDeps = map[string]RevDep{}
	}
	for name, p := range projects {
		for depProject, tags := range p.TestDeps {
			target, ok := projects[depProject]
			if !ok {
				continue
			}
			target.RevDeps[name] = RevDep{Tags: tags, Tests: p.Replica.Tests}
		}
	}
}

// ReplicaBranch resolves the replica branch mapped from an original branch,
// defaulting to the original branch name when no mapping is declared.
func (p *ProjectConfig) ReplicaBranch(originalBranch string) string {
	if mapped, ok := p.Replica.BranchMappings[originalBranch]; ok {
		return mapped
	}
	return originalBranch
}
