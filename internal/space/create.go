package space

import (
	"context"
	"fmt"
	"os"

	"github.com/sqve/spaces/internal/copyrules"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/hooks"
	"github.com/sqve/spaces/internal/logger"
	"github.com/sqve/spaces/internal/styles"
)

type NewOptions struct {
	Name    string
	Branch  string // checked out in the space; empty keeps the clone's default
	From    string // base ref for a new branch; defaults to the default branch
	NoFetch bool
	NoCopy  bool
}

// New creates a space. A failing postCreate hook leaves the space in place
// and returns a recoverable HOOK_FAILED error together with the space.
func (m *Manager) New(ctx context.Context, opts NewOptions) (*Space, error) {
	sp, err := m.create(ctx, opts)
	return sp, annotate(err, "new", opts.Name)
}

func (m *Manager) create(ctx context.Context, opts NewOptions) (*Space, error) {
	if err := validateNew(opts); err != nil {
		return nil, err
	}

	name := opts.Name
	path := m.PathFor(name)
	base := opts.From
	if base == "" {
		base = m.cfg.DefaultBranch
	}

	lock, err := m.lockSpace(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	if fs.PathExists(path) {
		return nil, errors.ErrSpaceExists(name, path)
	}

	var rules copyrules.RuleSet
	if !opts.NoCopy {
		if rules, err = copyrules.Compile(m.cfg.Copy, m.cfg.RepoRoot); err != nil {
			return nil, err
		}
	}

	mirror, err := m.mirrors.EnsureFresh(ctx, opts.NoFetch)
	if err != nil {
		return nil, err
	}

	if err := os.Mkdir(path, fs.DirGit); err != nil {
		if os.IsExist(err) {
			return nil, errors.ErrSpaceExists(name, path)
		}
		return nil, fmt.Errorf("failed to create space directory: %w", err)
	}

	logger.Info("Creating space %s at %s", styles.Render(&styles.Space, name), styles.Render(&styles.Path, path))
	if err := m.materialize(ctx, mirror.Path, path, opts.Branch, base); err != nil {
		if removeErr := os.RemoveAll(path); removeErr != nil {
			logger.Warning("Failed to clean up %s: %v", path, removeErr)
		}
		return nil, err
	}

	if rules.HasInclude() {
		if err := m.copyInto(path, rules); err != nil {
			return nil, err
		}
	}

	sp := &Space{Name: name, Path: path, BaseRef: base}
	m.inspect(ctx, sp)

	result := m.hooks.Run(ctx, hooks.PostCreate, m.cfg.Hooks.PostCreate, m.hookEnv(sp))
	if err := result.Err(); err != nil {
		logger.Warning("postCreate hook failed; the space was created")
		return sp, err
	}
	return sp, nil
}

func validateNew(opts NewOptions) error {
	if opts.Name == "" {
		return errors.New("space name required")
	}
	if !validName(opts.Name) {
		return fmt.Errorf("invalid space name %q", opts.Name)
	}
	if IsMainName(opts.Name) {
		return fmt.Errorf("%q refers to the main repository and cannot be used as a space name", opts.Name)
	}
	if opts.From != "" && opts.Branch == "" {
		return errors.New("--from requires a branch")
	}
	if opts.Branch != "" {
		return git.ValidateBranchName(opts.Branch)
	}
	return nil
}

// materialize clones into path borrowing objects from the mirror and checks
// out branch.
func (m *Manager) materialize(ctx context.Context, mirrorPath, path, branch, base string) error {
	src := m.cfg.Origin
	if src == "" {
		src = m.cfg.RepoRoot
	}

	err := logger.WithSpinner("Cloning repository...", func() error {
		return git.CloneWithReference(ctx, mirrorPath, src, path)
	})
	if err != nil {
		return errors.ErrGitCommand("clone", err)
	}

	if branch == "" {
		return nil
	}
	if err := checkout(ctx, mirrorPath, path, branch, base); err != nil {
		return errors.ErrGitCommand("checkout", err).WithContext("branch", branch)
	}
	return nil
}

// checkout prefers a remote branch, then a branch only the mirror knows,
// and otherwise creates branch from base.
func checkout(ctx context.Context, mirrorPath, path, branch, base string) error {
	if current, err := git.CurrentBranch(ctx, path); err == nil && current == branch {
		return nil
	}

	if ok, _ := git.RefExists(ctx, path, "refs/remotes/origin/"+branch); ok {
		if local, _ := git.RefExists(ctx, path, "refs/heads/"+branch); local {
			return git.Checkout(ctx, path, branch)
		}
		logger.Debug("Tracking origin/%s", branch)
		return git.CheckoutNewBranch(ctx, path, branch, "origin/"+branch)
	}

	if ok, _ := git.RefExists(ctx, mirrorPath, "refs/heads/"+branch); ok {
		logger.Debug("Fetching %s from mirror", branch)
		refspec := "refs/heads/" + branch + ":refs/heads/" + branch
		if err := git.Fetch(ctx, path, mirrorPath, false, refspec); err != nil {
			return err
		}
		return git.Checkout(ctx, path, branch)
	}

	start := base
	if ok, _ := git.RefExists(ctx, path, "refs/remotes/origin/"+base); ok {
		start = "origin/" + base
	}
	logger.Debug("Creating %s from %s", branch, start)
	return git.CheckoutNewBranch(ctx, path, branch, start)
}

// copyInto copies planned files from the repository root. Files the clone
// already has are left alone.
func (m *Manager) copyInto(path string, rules copyrules.RuleSet) error {
	candidates, err := copyrules.Candidates(m.cfg.RepoRoot)
	if err != nil {
		return err
	}

	planned := copyrules.Plan(candidates, rules)
	if len(planned) == 0 {
		return nil
	}

	result, err := copyrules.Apply(m.cfg.RepoRoot, path, planned, copyrules.ApplyOptions{})
	if err != nil {
		return err
	}
	logger.Info("Copied %d file(s), skipped %d existing", len(result.Copied), len(result.Skipped))
	return nil
}

func (m *Manager) hookEnv(sp *Space) hooks.Env {
	return hooks.Env{
		Space:     sp.Name,
		SpacePath: sp.Path,
		Branch:    sp.Branch,
		BaseRef:   sp.BaseRef,
		RepoRoot:  m.cfg.RepoRoot,
	}
}
