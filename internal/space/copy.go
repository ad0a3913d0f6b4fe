package space

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sqve/spaces/internal/copyrules"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/logger"
)

type CopyOptions struct {
	From     string   // source space; empty means the main repository
	Targets  []string // target space names
	All      bool     // copy into every space
	Patterns []string // explicit include patterns; empty uses configuration
	DryRun   bool
}

type CopyResult struct {
	Target *Space
	*copyrules.ApplyResult
}

// Copy copies matching files from one space into others, overwriting
// existing files. The source is never a target.
func (m *Manager) Copy(ctx context.Context, opts CopyOptions) ([]CopyResult, error) {
	from := opts.From
	if from == "" {
		from = "1"
	}
	results, err := m.copy(ctx, from, opts)
	return results, annotate(err, "copy", from)
}

func (m *Manager) copy(ctx context.Context, from string, opts CopyOptions) ([]CopyResult, error) {
	src, err := m.Resolve(ctx, from)
	if err != nil {
		return nil, err
	}

	rules, err := m.copyRules(opts.Patterns)
	if err != nil {
		return nil, err
	}
	if !rules.HasInclude() {
		return nil, errors.New("no copy patterns given or configured")
	}

	targets, err := m.copyTargets(ctx, opts)
	if err != nil {
		return nil, err
	}
	targets = lo.Filter(targets, func(t *Space, _ int) bool {
		return !fs.PathsEqual(t.Path, src.Path)
	})
	if len(targets) == 0 {
		return nil, errors.New("no target spaces")
	}

	candidates, err := copyrules.Candidates(src.Path)
	if err != nil {
		return nil, err
	}
	planned := copyrules.Plan(candidates, rules)
	logger.Debug("Planned %d of %d files from %s", len(planned), len(candidates), src.Path)

	var results []CopyResult
	for _, target := range targets {
		applied, err := m.copyOne(src, target, planned, opts.DryRun)
		if err != nil {
			return results, errors.WithContext(err, "target", target.Name)
		}
		results = append(results, CopyResult{Target: target, ApplyResult: applied})
	}
	return results, nil
}

func (m *Manager) copyRules(patterns []string) (copyrules.RuleSet, error) {
	cfg := m.cfg.Copy
	if len(patterns) == 0 {
		return copyrules.Compile(cfg, m.cfg.RepoRoot)
	}

	cfg.Include = patterns
	cfg.IncludeDirs = nil
	return copyrules.CompileConfig(cfg)
}

func (m *Manager) copyTargets(ctx context.Context, opts CopyOptions) ([]*Space, error) {
	if opts.All {
		return m.List(ctx)
	}

	var targets []*Space
	for _, name := range lo.Uniq(opts.Targets) {
		sp, err := m.Resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, sp)
	}
	return targets, nil
}

func (m *Manager) copyOne(src, target *Space, planned []string, dryRun bool) (*copyrules.ApplyResult, error) {
	if !target.IsMain && !dryRun {
		lock, err := m.lockSpace(target.Name)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release() }()
	}

	applied, err := copyrules.Apply(src.Path, target.Path, planned, copyrules.ApplyOptions{
		Overwrite: true,
		DryRun:    dryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("copy into %s: %w", target.Name, err)
	}
	return applied, nil
}
