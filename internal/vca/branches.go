package vca

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
)

// ListBranches lists branch names under refs/remotes/<remote>/, optionally
// filtered to those matching pattern (a simple prefix match, as used by the
// teacher's `recomb*`/`patches*` scans).
func (v *VCA) ListBranches(ctx context.Context, remote, pattern string) ([]string, error) {
	repo, err := v.OpenGoGit()
	if err != nil {
		return nil, err
	}
	refs, err := repo.References()
	if err != nil {
		return nil, err
	}
	prefix := "refs/remotes/" + remote + "/"
	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		short := strings.TrimPrefix(name, prefix)
		if pattern != "" && !strings.HasPrefix(short, strings.TrimSuffix(pattern, "*")) {
			return nil
		}
		names = append(names, short)
		return nil
	})
	return names, err
}

// CreateBranch creates a local branch at revision, replacing any existing
// branch of the same name.
func (v *VCA) CreateBranch(ctx context.Context, name, revision string) error {
	_, err := v.git(ctx, "checkout", "-B", name, revision)
	return err
}

// CheckoutBranch checks out an existing local branch.
func (v *VCA) CheckoutBranch(ctx context.Context, name string) error {
	_, err := v.git(ctx, "checkout", name)
	return err
}

// CheckoutDetached checks out revision with a detached HEAD.
func (v *VCA) CheckoutDetached(ctx context.Context, revision string) error {
	_, err := v.git(ctx, "checkout", "--detach", revision)
	return err
}

// DeleteBranch force-deletes a local branch, first returning to parking so
// the branch is never the current one.
func (v *VCA) DeleteBranch(ctx context.Context, name string) error {
	_ = v.CheckoutParking(ctx)
	_, err := v.git(ctx, "branch", "-D", name)
	return err
}

// TrackBranch creates a local branch tracking a remote ref.
func (v *VCA) TrackBranch(ctx context.Context, local, remoteRef string) error {
	_ = v.CheckoutParking(ctx)
	_, err := v.git(ctx, "branch", "--track", local, remoteRef)
	return err
}

// DeleteRemoteBranches deletes the named branches from remote.
func (v *VCA) DeleteRemoteBranches(ctx context.Context, remote string, names []string) error {
	for _, name := range names {
		if _, err := v.git(ctx, "push", remote, ":"+name); err != nil {
			return gniterrors.NewPushError(remote+"/"+name, err.Error())
		}
	}
	return nil
}

// Push pushes localRef to remote/remoteBranch, optionally force.
func (v *VCA) Push(ctx context.Context, remote, localRef, remoteBranch string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, remote, localRef+":"+remoteBranch)
	if _, err := v.git(ctx, args...); err != nil {
		return gniterrors.NewPushError(remote+"/"+remoteBranch, err.Error())
	}
	return nil
}
