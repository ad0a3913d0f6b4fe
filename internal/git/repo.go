package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sqve/spaces/internal/logger"
)

// RepoRoot returns the top level directory of the work tree containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git work tree: %w", err)
	}
	return out, nil
}

// IsRepo reports whether dir is inside a git repository.
func IsRepo(ctx context.Context, dir string) bool {
	ok, _ := succeeds(ctx, dir, "rev-parse", "--git-dir")
	return ok
}

// OriginURL returns the URL of the origin remote, or "" when there is none.
func OriginURL(ctx context.Context, dir string) (string, error) {
	values, err := GetConfigAll(ctx, dir, ScopeAuto, "remote.origin.url")
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return "", nil
		}
		return "", err
	}
	return values[len(values)-1], nil
}

// CloneMirror creates a mirror clone of src at dst.
func CloneMirror(ctx context.Context, src, dst string) error {
	logger.Debug("Creating mirror of %s at %s", src, dst)
	_, err := run(ctx, "", "clone", "--mirror", "--quiet", src, dst)
	return err
}

// SetRemoteURL points remote at url, adding the remote when missing.
func SetRemoteURL(ctx context.Context, dir, remote, url string) error {
	if _, err := run(ctx, dir, "remote", "set-url", remote, url); err == nil {
		return nil
	}
	_, err := run(ctx, dir, "remote", "add", remote, url)
	return err
}

// Fetch fetches refspecs from remote, which may be a remote name or a path.
func Fetch(ctx context.Context, dir, remote string, prune bool, refspecs ...string) error {
	args := []string{"fetch", "--quiet"}
	if prune {
		args = append(args, "--prune")
	}
	args = append(args, remote)
	args = append(args, refspecs...)
	_, err := run(ctx, dir, args...)
	return err
}

// CloneWithReference clones src into dst borrowing objects from reference
// when it is usable. dst may exist if it is empty.
func CloneWithReference(ctx context.Context, reference, src, dst string) error {
	_, err := run(ctx, "", "clone", "--quiet", "--reference-if-able", reference, src, dst)
	return err
}

// RefExists reports whether the fully qualified ref exists in dir.
func RefExists(ctx context.Context, dir, ref string) (bool, error) {
	return succeeds(ctx, dir, "show-ref", "--verify", "--quiet", ref)
}

// Checkout switches dir to an existing local branch.
func Checkout(ctx context.Context, dir, branch string) error {
	_, err := run(ctx, dir, "checkout", "--quiet", branch)
	return err
}

// CheckoutNewBranch creates branch at start and switches to it. A start of
// the form origin/<name> sets up tracking.
func CheckoutNewBranch(ctx context.Context, dir, branch, start string) error {
	_, err := run(ctx, dir, "checkout", "--quiet", "-b", branch, start)
	return err
}

// CurrentBranch returns the checked out branch, or "" when HEAD is detached.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	return run(ctx, dir, "branch", "--show-current")
}

// IsDirty reports whether the work tree has staged, unstaged or untracked changes.
func IsDirty(ctx context.Context, dir string) (bool, error) {
	out, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// DefaultBranch guesses the default branch of dir's origin: origin/HEAD,
// then origin/main, then origin/master. Repositories without an origin fall
// back to a local main or master branch, and finally to "main".
func DefaultBranch(ctx context.Context, dir string) string {
	if out, err := run(ctx, dir, "symbolic-ref", "--quiet", "--short", "refs/remotes/origin/HEAD"); err == nil {
		if branch, ok := strings.CutPrefix(out, "origin/"); ok && branch != "" {
			logger.Debug("Default branch from origin/HEAD: %s", branch)
			return branch
		}
	}

	for _, prefix := range []string{"refs/remotes/origin/", "refs/heads/"} {
		for _, candidate := range []string{"main", "master"} {
			if ok, _ := RefExists(ctx, dir, prefix+candidate); ok {
				logger.Debug("Default branch from %s%s", prefix, candidate)
				return candidate
			}
		}
	}

	return "main"
}

// ListRefs returns "<objectname> <refname>" lines for every ref in dir.
func ListRefs(ctx context.Context, dir string) ([]string, error) {
	out, err := run(ctx, dir, "for-each-ref", "--format=%(objectname) %(refname)")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Version returns the output of git --version without the "git version" prefix.
func Version(ctx context.Context) (string, error) {
	out, err := run(ctx, "", "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(out, "git version "), nil
}
