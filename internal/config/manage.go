package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/sqve/spaces/internal/errors"
	"github.com/sqve/spaces/internal/fs"
	"github.com/sqve/spaces/internal/git"
)

// ErrReadOnlyScope is returned when writing to the system scope.
var ErrReadOnlyScope = errors.New("system configuration is read-only")

// Entry is one configured value and the source it was read from.
type Entry struct {
	Key    string
	Value  string
	Source string // local, .spacesrc, global or system
}

// ValidateKey accepts keys in the spaces namespace.
func ValidateKey(key string) error {
	name, ok := cutPrefixFold(key, "spaces.")
	if !ok || name == "" || strings.HasSuffix(name, ".") {
		return fmt.Errorf("invalid key %q: only keys in the spaces. namespace are supported", key)
	}
	return nil
}

// Get returns every value of key. ScopeAuto collects local, .spacesrc,
// global and system values, de-duplicated.
func Get(ctx context.Context, repoRoot, key string, scope git.Scope) ([]string, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	entries, err := List(ctx, repoRoot, scope)
	if err != nil {
		return nil, err
	}

	values := lo.FilterMap(entries, func(e Entry, _ int) (string, bool) {
		return e.Value, strings.EqualFold(e.Key, key)
	})
	return lo.Uniq(values), nil
}

// Set replaces every value of key in scope. ScopeAuto writes to local.
func Set(ctx context.Context, repoRoot, key, value string, scope git.Scope) error {
	scope, err := writeScope(key, scope)
	if err != nil {
		return err
	}
	return git.SetConfig(ctx, repoRoot, scope, key, value)
}

// Add appends a value to key in scope. ScopeAuto writes to local.
func Add(ctx context.Context, repoRoot, key, value string, scope git.Scope) error {
	scope, err := writeScope(key, scope)
	if err != nil {
		return err
	}
	return git.AddConfig(ctx, repoRoot, scope, key, value)
}

// Unset removes every value of key in scope. ScopeAuto writes to local.
func Unset(ctx context.Context, repoRoot, key string, scope git.Scope) error {
	scope, err := writeScope(key, scope)
	if err != nil {
		return err
	}
	return git.UnsetConfig(ctx, repoRoot, scope, key)
}

// List returns spaces.* entries. ScopeAuto reads local, .spacesrc, global and
// system in that order.
func List(ctx context.Context, repoRoot string, scope git.Scope) ([]Entry, error) {
	if scope != git.ScopeAuto {
		return readScope(ctx, repoRoot, scope)
	}

	var all []Entry
	if repoRoot != "" {
		local, err := readScope(ctx, repoRoot, git.ScopeLocal)
		if err != nil {
			return nil, err
		}
		all = append(all, local...)

		rc, err := readRCFile(ctx, repoRoot)
		if err != nil {
			return nil, err
		}
		all = append(all, rc...)
	}

	for _, s := range []git.Scope{git.ScopeGlobal, git.ScopeSystem} {
		entries, err := readScope(ctx, repoRoot, s)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return lo.Uniq(all), nil
}

func readScope(ctx context.Context, dir string, scope git.Scope) ([]Entry, error) {
	entries, err := git.ReadConfig(ctx, dir, scope, namespacePattern)
	if err != nil {
		// Global and system files may not exist.
		if scope != git.ScopeLocal && git.ExitCode(err) > 1 {
			return nil, nil
		}
		return nil, err
	}
	return lo.Map(entries, func(e git.ConfigEntry, _ int) Entry {
		return Entry{Key: e.Key, Value: e.Value, Source: string(scope)}
	}), nil
}

func readRCFile(ctx context.Context, repoRoot string) ([]Entry, error) {
	path := filepath.Join(repoRoot, RCFile)
	if !fs.PathExists(path) {
		return nil, nil
	}
	entries, err := git.ReadConfigFile(ctx, path, namespacePattern)
	if err != nil {
		return nil, errors.ErrConfigInvalid(RCFile, err).WithContext("path", path)
	}
	return lo.Map(entries, func(e git.ConfigEntry, _ int) Entry {
		return Entry{Key: e.Key, Value: e.Value, Source: RCFile}
	}), nil
}

func writeScope(key string, scope git.Scope) (git.Scope, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	switch scope {
	case git.ScopeAuto:
		return git.ScopeLocal, nil
	case git.ScopeSystem:
		return "", ErrReadOnlyScope
	}
	return scope, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
