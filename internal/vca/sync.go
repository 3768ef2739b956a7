package vca

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
)

// SyncReplica fast-forward-merges revision into the local tracking branch
// for replicaBranch and pushes it to the replica remote. Fails if the
// fast-forward is impossible.
func (v *VCA) SyncReplica(ctx context.Context, remote, replicaBranch, revision string) error {
	local := "sync-" + replicaBranch
	if err := v.TrackBranch(ctx, local, remote+"/"+replicaBranch); err != nil {
		return err
	}
	defer func() { _ = v.DeleteBranch(ctx, local) }()

	if err := v.CheckoutBranch(ctx, local); err != nil {
		return err
	}
	if _, err := v.git(ctx, "merge", "--ff-only", revision); err != nil {
		_ = v.CheckoutParking(ctx)
		return gniterrors.NewMergeError(replicaBranch, "fast-forward merge failed: "+err.Error())
	}
	if err := v.Push(ctx, remote, "HEAD", replicaBranch, false); err != nil {
		_ = v.CheckoutParking(ctx)
		return err
	}
	return v.CheckoutParking(ctx)
}

// UpdateTargetBranch force-pushes replacementBranch to targetBranch on
// remote and deletes the local replacement branch afterwards.
func (v *VCA) UpdateTargetBranch(ctx context.Context, remote, replacementBranch, targetBranch string) error {
	if err := v.Push(ctx, remote, replacementBranch, targetBranch, true); err != nil {
		return err
	}
	return v.DeleteBranch(ctx, replacementBranch)
}

// RecombRef identifies one untested recombination to fetch for local test
// preparation.
type RecombRef struct {
	Number           string
	PatchsetNumber   string
}

// FetchRecomb checks out each untested recombination's review-server ref
// and copies its working tree (without repository metadata) into
// <dir>/<number>, returning the directories written.
func (v *VCA) FetchRecomb(ctx context.Context, dir string, list []RecombRef, remote string) (map[string]string, error) {
	if err := v.CheckoutParking(ctx); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	dirs := map[string]string{}
	for _, recomb := range list {
		recombDir := filepath.Join(dir, recomb.Number)
		if err := os.MkdirAll(recombDir, 0o750); err != nil {
			return nil, fmt.Errorf("creating recombination test directory: %w", err)
		}

		last2 := recomb.Number
		if len(last2) > 2 {
			last2 = last2[len(last2)-2:]
		}
		ref := fmt.Sprintf("remotes/%s/changes/%s/%s/%s", remote, last2, recomb.Number, recomb.PatchsetNumber)
		if err := v.CheckoutDetached(ctx, ref); err != nil {
			return nil, err
		}
		if err := copyTree(v.Dir, recombDir); err != nil {
			return nil, err
		}
		_ = os.RemoveAll(filepath.Join(recombDir, ".git"))
		if err := v.CheckoutParking(ctx); err != nil {
			return nil, err
		}
		dirs[recomb.Number] = recombDir
	}
	return dirs, nil
}

func copyTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(dstPath, 0o750); err != nil {
				return err
			}
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(srcPath)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dstPath, data, 0o640); err != nil {
			return err
		}
	}
	return nil
}
