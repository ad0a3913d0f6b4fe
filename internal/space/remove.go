package space

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/hooks"
	"github.com/sqve/spaces/internal/logger"
)

type RemoveOptions struct {
	Force bool // remove even when a preRemove hook fails
}

// Remove deletes a space. A missing space fails before anything is touched.
// A failing preRemove hook aborts unless Force is set; a failing postRemove
// hook is returned as a recoverable error after the space is gone.
func (m *Manager) Remove(ctx context.Context, name string, opts RemoveOptions) error {
	return annotate(m.remove(ctx, name, opts), "rm", name)
}

func (m *Manager) remove(ctx context.Context, name string, opts RemoveOptions) error {
	sp, err := m.Resolve(ctx, name)
	if err != nil {
		return err
	}
	if sp.IsMain {
		return errors.New("cannot remove the main repository")
	}
	if !fs.PathHasPrefix(sp.Path, m.cfg.ClonesDir) {
		return fmt.Errorf("refusing to remove path outside clones dir: %s", sp.Path)
	}

	lock, err := m.lockSpace(name)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	env := m.hookEnv(sp)
	pre := m.hooks.Run(ctx, hooks.PreRemove, m.cfg.Hooks.PreRemove, env)
	if err := pre.Err(); err != nil {
		if !opts.Force {
			return err
		}
		logger.Warning("preRemove hook failed; continuing due to --force")
	}

	if err := os.RemoveAll(sp.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", sp.Path, err)
	}
	logger.Debug("Removed %s", sp.Path)

	post := m.hooks.Run(ctx, hooks.PostRemove, m.cfg.Hooks.PostRemove, env)
	return post.Err()
}

type CleanResult struct {
	Removed []string
}

// Clean removes empty directories left in the clones directory. Lock files
// stay: unlinking one would let a later opener lock a different inode than a
// concurrent holder.
func (m *Manager) Clean() (*CleanResult, error) {
	result := &CleanResult{}

	entries, err := os.ReadDir(m.cfg.ClonesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, errors.WithOperation(err, "clean")
	}

	for _, entry := range entries {
		path := filepath.Join(m.cfg.ClonesDir, entry.Name())

		if !entry.IsDir() {
			continue
		}
		empty, err := fs.IsEmptyDir(path)
		if err != nil || !empty {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warning("Failed to remove %s: %v", path, err)
			continue
		}
		result.Removed = append(result.Removed, path)
	}

	return result, nil
}
