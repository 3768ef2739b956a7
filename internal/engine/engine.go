// Package engine is the per-project recombination engine: it scans a
// watched original branch's distance from its replica, slices the result
// into status-labeled segments, and drives each recombination through the
// MISSING -> PRESENT -> APPROVED -> MERGED state machine (spec.md §4.5).
// Grounded on original_source/core/project.py's Project class.
package engine

import (
	"context"

	"github.com/gabrielecerami/gitnetics/internal/config"
	"github.com/gabrielecerami/gitnetics/internal/logging"
	"github.com/gabrielecerami/gitnetics/internal/recomb"
	"github.com/gabrielecerami/gitnetics/internal/rsa"
	"github.com/gabrielecerami/gitnetics/internal/synth"
	"github.com/gabrielecerami/gitnetics/internal/vca"
)

// Remote name conventions, matching original_source/core/project.py's
// self.underlayer.remotes keys.
const (
	RemoteOriginal = "original"
	RemoteReplica  = "replica"
	RemoteMirror   = "replica-mirror"
)

// Repo is the subset of *vca.VCA the engine drives directly (synthesis
// itself is delegated to Synth).
type Repo interface {
	ResolveRevision(ctx context.Context, ref string) (string, error)
	ListCommits(ctx context.Context, start, end string, opts vca.ListCommitsOptions) ([]vca.Commit, error)
	ListBranches(ctx context.Context, remote, pattern string) ([]string, error)
	SyncReplica(ctx context.Context, remote, replicaBranch, revision string) error
	UpdateTargetBranch(ctx context.Context, remote, replacementBranch, targetBranch string) error
	DeleteRemoteBranches(ctx context.Context, remote string, names []string) error
	AmendMessage(ctx context.Context, message string) error
}

// ReviewServer is the subset of *rsa.RSA the engine needs.
type ReviewServer interface {
	GetBy(ctx context.Context, key rsa.Key) (*recomb.Change, error)
	Query(ctx context.Context, topic string) ([]*recomb.Change, error)
	Upload(ctx context.Context, branch, topic string, opts rsa.UploadOptions) (*recomb.Change, error)
	Approve(ctx context.Context, number string) error
	Submit(ctx context.Context, number string) error
	Comment(ctx context.Context, number, body string) error
	Abandon(ctx context.Context, number string) error
	ListComments(ctx context.Context, number string) ([]string, error)
}

// Synth is the subset of *synth.Synthesizer the engine needs.
type Synth interface {
	MergeRecombine(ctx context.Context, in synth.Inputs, recombBranch string) (synth.Result, error)
	CherrypickRecombine(ctx context.Context, in synth.Inputs, recombBranch, upstreamURL string) (string, error)
	MutationRecombine(ctx context.Context, in synth.Inputs, recombBranch string) (synth.Result, error)
}

// Engine drives one project's recombination lifecycle.
type Engine struct {
	Project string
	cfg     *config.ProjectConfig
	repo    Repo
	rs      ReviewServer
	synth   Synth
	logger  *logging.Logger
}

// New builds an Engine for one project.
func New(project string, cfg *config.ProjectConfig, repo Repo, rs ReviewServer, sy Synth, logger *logging.Logger) *Engine {
	return &Engine{Project: project, cfg: cfg, repo: repo, rs: rs, synth: sy, logger: logger}
}

func (e *Engine) originalURL() string {
	return "https://" + e.cfg.Original.Location + "/" + e.cfg.Original.Name
}
