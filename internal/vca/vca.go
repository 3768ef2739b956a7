// Package vca is the version-control adapter: every repository-level
// primitive the recombination engine needs (fetch, rev-list, show, merge,
// rebase, push, branch create/delete, revision parse), wrapping the git
// command line and go-git behind typed operations.
//
// All operations are blocking and assume exclusive ownership of the
// working directory for their duration. The composite operations
// (SyncReplica, FetchRecomb, DeleteBranch, TrackBranch) return HEAD to the
// parking sentinel; the checkout primitives (CreateBranch, CheckoutBranch,
// CheckoutDetached) leave HEAD on what they checked out, and the
// synthesizer returns it to parking when an algorithm finishes.
package vca

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
	"github.com/gabrielecerami/gitnetics/internal/logging"
	"github.com/gabrielecerami/gitnetics/internal/shell"
)

// ParkingBranch is the sentinel branch that holds HEAD between operations,
// so short-lived branches can always be created and deleted safely.
const ParkingBranch = "parking"

// VCA wraps one on-disk repository clone.
type VCA struct {
	Dir    string
	runner *shell.Runner
	logger *logging.Logger
}

// New creates a VCA rooted at dir.
func New(dir string, logger *logging.Logger) *VCA {
	return &VCA{
		Dir:    dir,
		runner: shell.New(dir, logger),
		logger: logger,
	}
}

func (v *VCA) git(ctx context.Context, args ...string) (shell.Result, error) {
	return v.runner.Run(ctx, "git", args...)
}

// gitOutput runs a git command and returns its trimmed stdout joined by
// newlines, or an error carrying the command's stderr.
func (v *VCA) gitOutput(ctx context.Context, args ...string) (string, error) {
	res, err := v.git(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(res.Stdout, "\n")), nil
}

// Init ensures the repository exists and has a parking sentinel branch
// holding an orphan, allow-empty commit. Idempotent.
func (v *VCA) Init(ctx context.Context) error {
	if _, err := v.git(ctx, "rev-parse", "--is-inside-work-tree"); err != nil {
		if _, err := v.git(ctx, "init"); err != nil {
			return gniterrors.NewCommandError("git init", nil, "", "", err)
		}
	}
	if _, err := v.git(ctx, "rev-parse", "--verify", "refs/heads/"+ParkingBranch); err == nil {
		return nil
	}
	if _, err := v.git(ctx, "checkout", "--orphan", ParkingBranch); err != nil {
		return gniterrors.NewCommandError("git checkout --orphan parking", nil, "", "", err)
	}
	if _, err := v.git(ctx, "commit", "--allow-empty", "-m", "parking"); err != nil {
		return gniterrors.NewCommandError("git commit parking", nil, "", "", err)
	}
	return nil
}

// CheckoutParking returns HEAD to the parking sentinel.
func (v *VCA) CheckoutParking(ctx context.Context) error {
	_, err := v.git(ctx, "checkout", ParkingBranch)
	return err
}

// RemoteKind distinguishes a review-server remote (which needs the
// refs/changes/* fetch refspec and commit-msg hook) from a plain git
// mirror remote.
type RemoteKind int

const (
	RemoteKindGit RemoteKind = iota
	RemoteKindReviewServer
)

// AddRemote registers a remote and optionally fetches it. Review-server
// remotes additionally fetch refs/changes/* into remotes/<name>/changes/*.
func (v *VCA) AddRemote(ctx context.Context, name, url string, kind RemoteKind, fetch bool) error {
	if _, err := v.gitOutput(ctx, "remote", "get-url", name); err != nil {
		if _, err := v.git(ctx, "remote", "add", name, url); err != nil {
			return gniterrors.NewRemoteFetchError(name, err.Error())
		}
	}
	if !fetch {
		return nil
	}
	if _, err := v.git(ctx, "fetch", name); err != nil {
		return gniterrors.NewRemoteFetchError(name, err.Error())
	}
	if kind == RemoteKindReviewServer {
		refspec := fmt.Sprintf("+refs/changes/*:refs/remotes/%s/changes/*", name)
		if _, err := v.git(ctx, "fetch", name, refspec); err != nil {
			return gniterrors.NewRemoteFetchError(name, err.Error())
		}
	}
	return nil
}

// Fetch refreshes one already-registered remote.
func (v *VCA) Fetch(ctx context.Context, remote string) error {
	if _, err := v.git(ctx, "fetch", remote); err != nil {
		return gniterrors.NewRemoteFetchError(remote, err.Error())
	}
	return nil
}

// ResolveRevision resolves a ref to a commit hash.
func (v *VCA) ResolveRevision(ctx context.Context, ref string) (string, error) {
	return v.gitOutput(ctx, "rev-parse", ref)
}

// OpenGoGit opens the repository via go-git, for the lightweight read-only
// inspection operations that don't need a subprocess (branch listing,
// reference lookups).
func (v *VCA) OpenGoGit() (*gogit.Repository, error) {
	return gogit.PlainOpenWithOptions(v.Dir, &gogit.PlainOpenOptions{DetectDotGit: true})
}

// PorcelainStatus returns `git status --porcelain` output lines, used by
// the synthesizer's patch-eviction loop to detect whether an attempt made
// any difference to the conflict state.
func (v *VCA) PorcelainStatus(ctx context.Context) ([]string, error) {
	res, err := v.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}
