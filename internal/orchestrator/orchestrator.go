// Package orchestrator is the multi-project driver: it filters the
// projects configuration map down to the set an invocation should touch,
// bootstraps a VCA/RSA/engine trio per surviving project, and exposes one
// method per top-level CLI command (spec.md §4.6). Grounded on
// original_source/core/polymerase.py's Polymerase class, combined with
// lucasnoah-taintfactory/internal/orchestrator/orchestrator.go's Go idiom
// for the same shape (a struct holding a map of per-unit state, one method
// per top-level command, explicit per-item error capture that logs and
// continues rather than aborting the loop).
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gabrielecerami/gitnetics/internal/config"
	"github.com/gabrielecerami/gitnetics/internal/engine"
	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/logging"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/synth"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// Filters narrows the projects configuration map down to the set an
// invocation should touch, applied in order: by name list, then by watch
// method, then by branch list (spec.md §4.6) — each filter narrows the
// previous, matching polymerase.py's restrict-project-list sequence.
type Filters struct {
	Projects      []string
	WatchMethod   string
	WatchBranches []string
}

// project is one bootstrapped project: its config plus the adapters and
// engine the orchestrator drives it through.
type project struct {
	name   string
	cfg    *config.ProjectConfig
	repo   *vca.VCA
	rs     *rsa.RSA
	engine *engine.Engine
}

// Orchestrator is the multi-project driver.
type Orchestrator struct {
	projects map[string]*project
	logger   *logging.Logger
}

// New filters projectsConf per filters, then bootstraps every surviving
// project rooted at <baseDir>/<project>. A per-project bootstrap failure is
// logged and that project is skipped (spec.md §4.6: per-project exceptions
// must not abort sibling projects); an empty filtered/bootstrapped set is
// the one fatal condition this constructor reports, matching
// ErrEmptyProjectSet's CLI exit-code-1 policy (spec.md §6).
func New(ctx context.Context, projectsConf config.Projects, baseDir string, filters Filters, fetch bool, logger *logging.Logger) (*Orchestrator, error) {
	selected := applyFilters(projectsConf, filters, logger)
	if len(selected) == 0 {
		logger.Error("filtered project set is empty")
		return nil, gniterrors.ErrEmptyProjectSet
	}

	logger.Summary().Info("initializing and updating local repositories for relevant projects")

	o := &Orchestrator{projects: map[string]*project{}, logger: logger}
	for _, name := range sortedNames(selected) {
		cfg := selected[name]
		p, err := bootstrapProject(ctx, name, cfg, baseDir, fetch, logger)
		if err != nil {
			logger.Summary().Error("project %s skipped, reason: %v", name, err)
			continue
		}
		o.projects[name] = p
		logger.Summary().Info("project %s initialized", name)
	}
	if len(o.projects) == 0 {
		return nil, gniterrors.ErrEmptyProjectSet
	}
	return o, nil
}

func applyFilters(projectsConf config.Projects, filters Filters, logger *logging.Logger) config.Projects {
	selected := make(config.Projects, len(projectsConf))
	for name, cfg := range projectsConf {
		selected[name] = cfg
	}

	if len(filters.Projects) > 0 {
		logger.Info("filtering projects with names: %v", filters.Projects)
		narrowed := config.Projects{}
		for _, name := range filters.Projects {
			cfg, ok := selected[name]
			if !ok {
				logger.Error("project %s is not present in projects configuration", name)
				continue
			}
			narrowed[name] = cfg
		}
		selected = narrowed
	}

	if filters.WatchMethod != "" {
		logger.Info("filtering projects with watch method: %s", filters.WatchMethod)
		narrowed := config.Projects{}
		for name, cfg := range selected {
			if cfg.Original.WatchMethod == filters.WatchMethod {
				narrowed[name] = cfg
			}
		}
		selected = narrowed
	}

	if len(filters.WatchBranches) > 0 {
		logger.Info("filtering branches: %v", filters.WatchBranches)
		narrowed := make(config.Projects, len(selected))
		for name, cfg := range selected {
			// Clone before mutating: cfg is shared with the caller's
			// loaded configuration, which must stay unchanged.
			clone := *cfg
			clone.Original.WatchBranches = append([]string(nil), filters.WatchBranches...)
			narrowed[name] = &clone
		}
		selected = narrowed
	}

	return selected
}

func sortedNames(projects config.Projects) []string {
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bootstrapProject(ctx context.Context, name string, cfg *config.ProjectConfig, baseDir string, fetch bool, logger *logging.Logger) (*project, error) {
	dir := filepath.Join(baseDir, name)
	repo := vca.New(dir, logger)
	if err := repo.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}

	originalKind := vca.RemoteKindGit
	if cfg.Original.Type == "gerrit" {
		originalKind = vca.RemoteKindReviewServer
	}
	originalURL := repoURL(cfg.Original.Location, cfg.Original.Name)
	if err := repo.AddRemote(ctx, engine.RemoteOriginal, originalURL, originalKind, fetch); err != nil {
		return nil, fmt.Errorf("adding original remote: %w", err)
	}

	replicaURL := repoURL(cfg.Replica.Location, cfg.Replica.Name)
	if err := repo.AddRemote(ctx, engine.RemoteReplica, replicaURL, vca.RemoteKindReviewServer, fetch); err != nil {
		return nil, fmt.Errorf("adding replica remote: %w", err)
	}

	if cfg.Replica.Mirror != "" {
		mirrorURL := repoURL(cfg.Replica.Mirror, cfg.Replica.Name)
		if err := repo.AddRemote(ctx, engine.RemoteMirror, mirrorURL, vca.RemoteKindGit, fetch); err != nil {
			return nil, fmt.Errorf("adding replica-mirror remote: %w", err)
		}
	}

	rs, err := rsa.New(ctx, replicaURL, logger)
	if err != nil {
		return nil, fmt.Errorf("building review-server adapter: %w", err)
	}

	sy := synth.New(repo, engine.RemoteReplica, engine.RemoteOriginal, logger)
	eng := engine.New(name, cfg, repo, rs, sy, logger)

	return &project{name: name, cfg: cfg, repo: repo, rs: rs, engine: eng}, nil
}

func repoURL(location, name string) string {
	return "https://" + location + "/" + name
}

func (o *Orchestrator) names() []string {
	names := make([]string, 0, len(o.projects))
	for name := range o.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
