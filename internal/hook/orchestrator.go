package hook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cadlink-project/cadlink/internal/codec"
	"github.com/cadlink-project/cadlink/pkg/errclass"
)

// PreCommit decomposes every staged container and stages the resulting
// trees. Under require_lock the committing identity must own the lock for
// each staged container. Any failure aborts the commit: lock checks run
// for all paths before the first decompose so a refused commit leaves the
// index untouched.
func PreCommit(ctx *Context) error {
	staged, err := ctx.Git.StagedPaths()
	if err != nil {
		return fmt.Errorf("resolve staged paths: %w", err)
	}
	containers := ctx.filterContainers(staged)
	if len(containers) == 0 {
		return nil
	}

	if ctx.Config.RequireLock {
		identity, err := ctx.Git.UserName()
		if err != nil {
			return err
		}
		for _, rel := range containers {
			if err := verifyLockOwnership(ctx, rel, identity); err != nil {
				return err
			}
		}
	}

	trees := make([]string, 0, len(containers))
	for _, rel := range containers {
		treeRel, treeAbs, err := ctx.treePath(rel)
		if err != nil {
			return err
		}
		if _, err := ctx.Codec.Decompose(ctx.abs(rel), treeAbs); err != nil {
			return fmt.Errorf("decompose %s: %w", rel, err)
		}
		trees = append(trees, treeRel)
	}

	// One git add so staging is all-or-nothing.
	if err := ctx.Git.Add(trees...); err != nil {
		return fmt.Errorf("stage decomposed trees: %w", err)
	}
	return nil
}

// PostCheckout recomposes every container whose decomposed tree exists in
// the working copy. Failures are logged and never abort the checkout; the
// container is simply left stale.
func PostCheckout(ctx *Context, prevHead, newHead string, branchCheckout bool) error {
	return recomposeExisting(ctx, "post-checkout")
}

// PostMerge recomposes containers after a merge. Soft-fail, like
// PostCheckout.
func PostMerge(ctx *Context, squash bool) error {
	return recomposeExisting(ctx, "post-merge")
}

// PostRewrite recomposes containers after a rebase or amend. Soft-fail.
func PostRewrite(ctx *Context, kind string) error {
	return recomposeExisting(ctx, "post-rewrite")
}

// recomposeExisting applies the soft-fail policy shared by the
// read-direction phases: it always returns nil.
func recomposeExisting(ctx *Context, phase string) error {
	log := ctx.Log.WithFields(map[string]any{"phase": phase})

	tracked, err := ctx.Git.TrackedPaths()
	if err != nil {
		log.ErrorErr("cannot resolve tracked paths, containers left as-is", err)
		return nil
	}

	for _, rel := range ctx.filterContainers(tracked) {
		_, treeAbs, err := ctx.treePath(rel)
		if err != nil {
			log.ErrorErr("cannot resolve tree path", err, map[string]any{"path": rel})
			continue
		}
		if _, err := os.Stat(filepath.Join(treeAbs, codec.ManifestName)); err != nil {
			continue // no decomposed tree for this container
		}
		if err := ctx.Codec.Recompose(treeAbs, ctx.abs(rel)); err != nil {
			log.ErrorErr("recompose failed, container left stale", err, map[string]any{"path": rel})
			continue
		}
		log.Info("recomposed container", map[string]any{"path": rel})
	}
	return nil
}

// PushRef is one line of the ref listing git feeds a pre-push hook.
type PushRef struct {
	LocalRef  string
	LocalSHA  string
	RemoteRef string
	RemoteSHA string
}

// ParsePushRefs reads the "<local ref> <local sha> <remote ref> <remote
// sha>" lines from a pre-push hook's stdin.
func ParsePushRefs(r io.Reader) ([]PushRef, error) {
	var refs []PushRef
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed pre-push ref line: %q", line)
		}
		refs = append(refs, PushRef{
			LocalRef:  fields[0],
			LocalSHA:  fields[1],
			RemoteRef: fields[2],
			RemoteSHA: fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pre-push refs: %w", err)
	}
	return refs, nil
}

// PrePush verifies that every container touched by the outgoing commits is
// either unlocked or locked by the pushing identity. Hard-fail.
func PrePush(ctx *Context, remote string, refs []PushRef) error {
	if !ctx.Config.RequireLock {
		return nil
	}

	identity, err := ctx.Git.UserName()
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, ref := range refs {
		if isZeroSHA(ref.LocalSHA) {
			continue // ref deletion pushes no commits
		}

		var paths []string
		if isZeroSHA(ref.RemoteSHA) {
			// New remote ref: no merge base to diff against.
			paths, err = ctx.Git.TrackedPaths()
		} else {
			paths, err = ctx.Git.DiffPaths(ref.RemoteSHA, ref.LocalSHA)
		}
		if err != nil {
			return fmt.Errorf("resolve outgoing paths for %s: %w", ref.LocalRef, err)
		}

		for _, rel := range ctx.filterContainers(paths) {
			if seen[rel] {
				continue
			}
			seen[rel] = true
			if err := verifyPushableLock(ctx, rel, identity); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifyLockOwnership enforces the pre-commit rule: under require_lock the
// committer must hold the lock.
func verifyLockOwnership(ctx *Context, rel, identity string) error {
	l, err := ctx.Locks.Find(rel)
	if err != nil {
		return err
	}
	if l == nil {
		return errclass.ErrNotLockOwner.WithMessagef(
			"%s is not locked; lock it before committing (require_lock is set)", rel)
	}
	if !l.OwnedBy(identity) {
		return errclass.ErrAlreadyLocked.WithMessagef(
			"%s is locked by %s", rel, l.Owner)
	}
	return nil
}

// verifyPushableLock enforces the pre-push rule: an existing lock must
// belong to the pusher; an unlocked path is fine.
func verifyPushableLock(ctx *Context, rel, identity string) error {
	l, err := ctx.Locks.Find(rel)
	if err != nil {
		return err
	}
	if l != nil && !l.OwnedBy(identity) {
		return errclass.ErrNotLockOwner.WithMessagef(
			"%s is locked by %s; push refused", rel, l.Owner)
	}
	return nil
}

func isZeroSHA(sha string) bool {
	return strings.Trim(sha, "0") == ""
}
