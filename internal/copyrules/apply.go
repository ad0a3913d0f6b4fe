package copyrules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/logger"
)

type ApplyOptions struct {
	Overwrite bool // replace existing destination files
	DryRun    bool // report without touching the destination
}

// ApplyResult lists relative paths by outcome. In dry-run mode Copied holds
// the paths that would be copied.
type ApplyResult struct {
	Copied  []string
	Skipped []string
}

// Apply copies paths from src to dst, preserving file modes and recreating
// symlinks. It stops at the first failure.
func Apply(src, dst string, paths []string, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}

	for _, rel := range paths {
		from := filepath.Join(src, filepath.FromSlash(rel))
		to := filepath.Join(dst, filepath.FromSlash(rel))

		copied, err := applyOne(from, to, opts)
		if err != nil {
			return result, fmt.Errorf("failed to copy %s: %w", rel, err)
		}
		if copied {
			logger.Debug("Copied %s", rel)
			result.Copied = append(result.Copied, rel)
		} else {
			logger.Debug("Skipped existing %s", rel)
			result.Skipped = append(result.Skipped, rel)
		}
	}

	return result, nil
}

func applyOne(from, to string, opts ApplyOptions) (bool, error) {
	info, err := os.Lstat(from)
	if err != nil {
		return false, err
	}

	if existing, err := os.Lstat(to); err == nil {
		if existing.IsDir() {
			return false, fmt.Errorf("destination %s is a directory", to)
		}
		if !opts.Overwrite {
			return false, nil
		}
	}

	if opts.DryRun {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(to), fs.DirGit); err != nil {
		return false, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		err = fs.CopySymlink(from, to, opts.Overwrite)
	} else if opts.Overwrite {
		err = fs.CopyFile(from, to, info.Mode().Perm())
	} else {
		err = fs.CopyFileExclusive(from, to, info.Mode().Perm())
	}

	// Lost a race with another writer; the existing file stays
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	return err == nil, err
}
