package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gabrielecerami/gitnetics/internal/config"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// projectVarsFile is project-vars.yaml's shape: the configuration of every
// project this invocation bootstrapped, under a top-level projects key, for
// the external test runner to read (spec.md §6 test-artifact layout).
// Projects removed by the filters or skipped at bootstrap are not included,
// and a --watch-branches override shows in the dumped watch-branches.
type projectVarsFile struct {
	Projects config.Projects `yaml:"projects"`
}

// ProjectTests is one test-dependent project's contribution to a
// recombination's vars.yaml: test type -> relative result-file path.
type ProjectTests struct {
	Types map[string]string `yaml:"types"`
}

// RecombVars is one recombination's `<project>/<recombNumber>/vars.yaml`.
type RecombVars struct {
	TargetProject    string                  `yaml:"target_project"`
	RecombinationDir string                  `yaml:"recombination_dir"`
	RecombinationID  string                  `yaml:"recombination_id"`
	Tests            map[string]ProjectTests `yaml:"tests"`
}

// PrepareTests writes project-vars.yaml, fetches each open recombination's
// working tree into `<project>/<number>/code/`, and writes its
// `vars.yaml` describing which test result files the external runner is
// expected to produce — the project's own declared tests plus, per
// spec.md §4.6, every reverse-dependent project's test matrix. With
// recombID set, only that one recombination is prepared.
func (o *Orchestrator) PrepareTests(ctx context.Context, testsBasedir, recombID string) error {
	if err := os.MkdirAll(testsBasedir, 0o750); err != nil {
		return fmt.Errorf("creating tests basedir: %w", err)
	}

	projects := make(config.Projects, len(o.projects))
	for name, p := range o.projects {
		projects[name] = p.cfg
	}
	if err := writeYAML(filepath.Join(testsBasedir, "project-vars.yaml"), projectVarsFile{Projects: projects}); err != nil {
		return fmt.Errorf("writing project-vars.yaml: %w", err)
	}

	for _, name := range o.names() {
		p := o.projects[name]
		o.logger.Summary().Info("preparing tests for project %s", name)

		open, err := p.rs.ListOpen(ctx)
		if err != nil {
			o.logger.Summary().Error("project %s: listing open recombinations: %v", name, err)
			continue
		}

		var refs []vca.RecombRef
		for _, change := range open {
			if recombID != "" && change.Number != recombID {
				continue
			}
			refs = append(refs, vca.RecombRef{Number: change.Number, PatchsetNumber: change.PatchsetNumber})
		}
		if len(refs) == 0 {
			continue
		}

		projectDir := filepath.Join(testsBasedir, name)
		dirs, err := p.repo.FetchRecomb(ctx, projectDir, refs, RemoteReplicaChangesRemote)
		if err != nil {
			o.logger.Summary().Error("project %s: fetching recombinations: %v", name, err)
			continue
		}

		for number, recombDir := range dirs {
			if err := nestUnderCode(recombDir); err != nil {
				o.logger.Summary().Error("project %s recombination %s: %v", name, number, err)
				continue
			}
			vars := RecombVars{
				TargetProject:    name,
				RecombinationDir: filepath.Join(name, number, "code"),
				RecombinationID:  number,
				Tests:            buildTestMatrix(name, number, p.cfg),
			}
			if err := writeYAML(filepath.Join(recombDir, "vars.yaml"), vars); err != nil {
				o.logger.Summary().Error("project %s recombination %s: writing vars.yaml: %v", name, number, err)
			}
		}
	}
	return nil
}

// RemoteReplicaChangesRemote is the remote whose refs/changes/* namespace
// FetchRecomb reads from: the replica's review server, where untested
// recombinations live as open reviews.
const RemoteReplicaChangesRemote = "replica"

// nestUnderCode moves a fetched recombination's working tree from
// <dir>/<number> to <dir>/<number>/code, matching spec.md §6's
// `<project>/<recombNumber>/code/` layout without changing FetchRecomb's
// existing <dir>/<number> contract.
func nestUnderCode(dir string) error {
	tmp := dir + ".fetched"
	if err := os.Rename(dir, tmp); err != nil {
		return fmt.Errorf("staging fetched tree: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("recreating recombination directory: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, "code")); err != nil {
		return fmt.Errorf("nesting fetched tree under code/: %w", err)
	}
	return nil
}

// buildTestMatrix assembles one recombination's tests map: the owning
// project's own declared test tags, plus one entry per reverse-dependent
// project contributing the tags it depends on this project for (spec.md
// §4.6's rev-deps attachment).
func buildTestMatrix(projectName, number string, cfg *config.ProjectConfig) map[string]ProjectTests {
	tests := map[string]ProjectTests{}

	if len(cfg.Replica.Tests) > 0 {
		types := map[string]string{}
		for _, tag := range cfg.Replica.Tests {
			types[tag] = resultPath(projectName, number, tag, projectName)
		}
		tests[projectName] = ProjectTests{Types: types}
	}

	depNames := make([]string, 0, len(cfg.RevDeps))
	for depName := range cfg.RevDeps {
		depNames = append(depNames, depName)
	}
	sort.Strings(depNames)
	for _, depName := range depNames {
		dep := cfg.RevDeps[depName]
		types := map[string]string{}
		for _, tag := range dep.Tags {
			types[tag] = resultPath(projectName, number, tag, depName)
		}
		if len(types) > 0 {
			tests[depName] = ProjectTests{Types: types}
		}
	}
	return tests
}

func resultPath(projectName, number, testType, forProject string) string {
	return filepath.Join(projectName, number, "results", testType, forProject+"_results.xml")
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}

// VoteRecombinations walks every `vars.yaml` under testsBasedir, scores
// each recombination 100 if every test result file it names exists, 0
// with collected reasons otherwise, and approves or rejects accordingly
// (spec.md §4.6). With recombID set, only that recombination's vars.yaml
// is scored.
func (o *Orchestrator) VoteRecombinations(ctx context.Context, testsBasedir, recombID string) error {
	return filepath.Walk(testsBasedir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || filepath.Base(path) != "vars.yaml" {
			return nil
		}

		var vars RecombVars
		data, err := os.ReadFile(path)
		if err != nil {
			o.logger.Summary().Error("reading %s: %v", path, err)
			return nil
		}
		if err := yaml.Unmarshal(data, &vars); err != nil {
			o.logger.Summary().Error("parsing %s: %v", path, err)
			return nil
		}
		if recombID != "" && vars.RecombinationID != recombID {
			return nil
		}

		p, ok := o.projects[vars.TargetProject]
		if !ok {
			o.logger.Summary().Error("%s: unknown project %s", path, vars.TargetProject)
			return nil
		}

		o.scoreAndVote(ctx, testsBasedir, p.name, p.rs, vars)
		return nil
	})
}

func (o *Orchestrator) scoreAndVote(ctx context.Context, testsBasedir, projectName string, rs *rsa.RSA, vars RecombVars) {
	var missing []string
	for _, proj := range vars.Tests {
		for testType, relPath := range proj.Types {
			if _, err := os.Stat(filepath.Join(testsBasedir, relPath)); err != nil {
				missing = append(missing, fmt.Sprintf("%s: missing test results (%s)", testType, relPath))
			}
		}
	}

	number := vars.RecombinationID
	if len(missing) > 0 {
		reason := "0: missing test results:\n"
		for _, m := range missing {
			reason += "  " + m + "\n"
		}
		if err := rs.Reject(ctx, number, reason); err != nil {
			o.logger.Summary().Error("project %s recombination %s: reject: %v", projectName, number, err)
		}
		return
	}

	if err := rs.Approve(ctx, number); err != nil {
		o.logger.Summary().Error("project %s recombination %s: approve: %v", projectName, number, err)
	}
}
