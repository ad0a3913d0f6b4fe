package config

import (
	"context"
	"path/filepath"

	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/git"
)

// RCFile is the repository-level configuration file, in git-config syntax.
const RCFile = ".spacesrc"

var namespacePattern = git.PrefixPattern("spaces.")

// Defaults returns the built-in layer.
func Defaults() Layer {
	prefix := ""
	branch := "auto"
	patternFiles := PatternFilesAppend
	timeout := DefaultLockTimeout
	return Layer{
		ClonesPrefix:  &prefix,
		DefaultBranch: &branch,
		PatternFiles:  &patternFiles,
		LockTimeout:   &timeout,
	}
}

// LoadFromFile reads .spacesrc at repoRoot. A missing file yields an empty
// layer.
func LoadFromFile(ctx context.Context, repoRoot string) (Layer, error) {
	path := filepath.Join(repoRoot, RCFile)
	if !fs.PathExists(path) {
		return Layer{}, nil
	}

	entries, err := git.ReadConfigFile(ctx, path, namespacePattern)
	if err != nil {
		return Layer{}, errors.ErrConfigInvalid(RCFile, err).WithContext("path", path)
	}
	return layerFromEntries(entries, RCFile)
}

// LoadFromGitConfig reads spaces.* from git configuration as git itself
// merges system, global and local.
func LoadFromGitConfig(ctx context.Context, repoRoot string) (Layer, error) {
	entries, err := git.ReadConfig(ctx, repoRoot, git.ScopeAuto, namespacePattern)
	if err != nil {
		return Layer{}, errors.ErrConfigInvalid("git config", err)
	}
	return layerFromEntries(entries, "git config")
}

func layerFromEntries(entries []git.ConfigEntry, source string) (Layer, error) {
	grouped := make(map[string][]string)
	var order []string
	for _, e := range entries {
		spec, ok := lookupKey(e.Key)
		if !ok {
			continue
		}
		if _, seen := grouped[spec.name]; !seen {
			order = append(order, spec.name)
		}
		grouped[spec.name] = append(grouped[spec.name], e.Value)
	}

	var layer Layer
	for _, name := range order {
		if err := layer.set(name, grouped[name], source); err != nil {
			return Layer{}, err
		}
	}
	return layer, nil
}
