// Package config resolves the effective configuration of a repository from
// built-in defaults, .spacesrc, git configuration, the environment and flags.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sqve/spaces/internal/copyrules"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/git"
	"github.com/sqve/spaces/internal/logger"
)

const DefaultLockTimeout = 2 * time.Minute

// Values of spaces.copy.patternFiles.
const (
	PatternFilesAppend = "append"
	PatternFilesIgnore = "ignore"
)

// Hooks lists the commands of each lifecycle phase.
type Hooks struct {
	PostCreate []string
	PreRemove  []string
	PostRemove []string
}

// Effective is the resolved configuration for one repository. It is not
// modified after Resolve returns.
type Effective struct {
	RepoRoot string
	RepoName string
	Origin   string // empty when the repository has no origin remote

	ClonesDir    string
	ClonesPrefix string

	MirrorsRoot string
	MirrorPath  string
	LockTimeout time.Duration

	DefaultBranch string
	Copy          copyrules.Config
	Hooks         Hooks
}

// Resolve folds every configuration layer for repoRoot with overrides on top.
func Resolve(ctx context.Context, repoRoot string, overrides Layer) (*Effective, error) {
	file, err := LoadFromFile(ctx, repoRoot)
	if err != nil {
		return nil, err
	}
	gitLayer, err := LoadFromGitConfig(ctx, repoRoot)
	if err != nil {
		return nil, err
	}
	env, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	merged := Fold(Defaults(), file, gitLayer, env, overrides)
	if err := validatePatterns(merged); err != nil {
		return nil, err
	}
	patternFiles := strings.ToLower(strings.TrimSpace(deref(merged.PatternFiles)))
	if patternFiles != PatternFilesAppend && patternFiles != PatternFilesIgnore {
		return nil, errors.ErrConfigInvalid(KeyPatternFiles,
			fmt.Errorf("expected %q or %q, got %q", PatternFilesAppend, PatternFilesIgnore, patternFiles))
	}

	origin, err := git.OriginURL(ctx, repoRoot)
	if err != nil {
		return nil, errors.ErrGitCommand("remote get-url origin", err)
	}

	eff := &Effective{
		RepoRoot:     repoRoot,
		RepoName:     filepath.Base(repoRoot),
		Origin:       origin,
		ClonesPrefix: deref(merged.ClonesPrefix),
		LockTimeout:  DefaultLockTimeout,
		Copy: copyrules.Config{
			Include:     merged.Include,
			Exclude:     merged.Exclude,
			IncludeDirs: merged.IncludeDirs,
			ExcludeDirs: merged.ExcludeDirs,

			IgnorePatternFiles: patternFiles == PatternFilesIgnore,
		},
		Hooks: Hooks{
			PostCreate: merged.PostCreate,
			PreRemove:  merged.PreRemove,
			PostRemove: merged.PostRemove,
		},
	}
	if merged.LockTimeout != nil {
		eff.LockTimeout = *merged.LockTimeout
	}

	if eff.ClonesDir, err = resolveDir(KeyClonesDir, deref(merged.ClonesDir), repoRoot); err != nil {
		return nil, err
	}
	if eff.ClonesDir == "" {
		eff.ClonesDir = filepath.Join(filepath.Dir(repoRoot), eff.RepoName+"-clones")
	}

	if eff.MirrorsRoot, err = resolveDir(KeyMirrorsDir, deref(merged.MirrorsDir), repoRoot); err != nil {
		return nil, err
	}
	if eff.MirrorsRoot == "" {
		if eff.MirrorsRoot, err = defaultMirrorsRoot(); err != nil {
			return nil, errors.ErrConfigInvalid(KeyMirrorsDir, err)
		}
	}
	eff.MirrorPath = filepath.Join(eff.MirrorsRoot, MirrorDirName(eff.RepoName, MirrorIdentity(origin, repoRoot)))

	eff.DefaultBranch = strings.TrimSpace(deref(merged.DefaultBranch))
	if eff.DefaultBranch == "" || strings.EqualFold(eff.DefaultBranch, "auto") {
		eff.DefaultBranch = git.DefaultBranch(ctx, repoRoot)
	}

	logger.Debug("Resolved config: clones=%s mirror=%s branch=%s", eff.ClonesDir, eff.MirrorPath, eff.DefaultBranch)
	return eff, nil
}

// MirrorIdentity is the string a mirror is keyed by: the origin URL, or the
// repository path when there is no origin.
func MirrorIdentity(origin, repoRoot string) string {
	if origin != "" {
		return origin
	}
	return repoRoot
}

// MirrorDirName names the mirror directory for identity under the mirrors root.
func MirrorDirName(repoName, identity string) string {
	return fmt.Sprintf("%s-%016x", repoName, xxhash.Sum64String(identity))
}

func validatePatterns(l Layer) error {
	lists := []struct {
		key      string
		patterns []string
	}{
		{KeyCopyInclude, l.Include},
		{KeyCopyExclude, l.Exclude},
		{KeyIncludeDirs, l.IncludeDirs},
		{KeyExcludeDirs, l.ExcludeDirs},
	}
	for _, list := range lists {
		for _, pattern := range list.patterns {
			if err := copyrules.ValidatePattern(pattern); err != nil {
				return errors.ErrConfigInvalid(list.key, err)
			}
		}
	}
	return nil
}

func resolveDir(key, dir, repoRoot string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", nil
	}

	expanded, err := fs.ExpandHome(dir)
	if err != nil {
		return "", errors.ErrConfigInvalid(key, err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(repoRoot, expanded)
	}
	return filepath.Clean(expanded), nil
}

func defaultMirrorsRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "spaces", "mirrors"), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
