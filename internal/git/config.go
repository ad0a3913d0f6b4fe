package git

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sqve/spaces/internal/logger"
)

// ErrConfigNotFound is returned when a config key is not found
var ErrConfigNotFound = errors.New("config key not found")

// Scope selects which git configuration file a command reads or writes.
type Scope string

const (
	ScopeAuto   Scope = ""
	ScopeLocal  Scope = "local"
	ScopeGlobal Scope = "global"
	ScopeSystem Scope = "system"
)

// ConfigEntry is a single key/value pair and the scope git reported it from.
// Keys are returned the way git prints them: section and name lowercased.
type ConfigEntry struct {
	Key   string
	Value string
	Scope string
}

func scopeArgs(scope Scope) []string {
	if scope == ScopeAuto {
		return nil
	}
	return []string{"--" + string(scope)}
}

// PrefixPattern returns a --get-regexp pattern matching keys under prefix.
func PrefixPattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix)
}

// ReadConfig lists entries whose key matches pattern, labelled with their
// scope. An empty result is not an error.
func ReadConfig(ctx context.Context, dir string, scope Scope, pattern string) ([]ConfigEntry, error) {
	logger.Debug("Reading git config %s (scope=%s)", pattern, displayScope(scope))

	args := append([]string{"config", "--show-scope"}, scopeArgs(scope)...)
	args = append(args, "--get-regexp", pattern)

	out, err := run(ctx, dir, args...)
	if err != nil {
		if ExitCode(err) == 1 {
			return nil, nil
		}
		return nil, err
	}

	var entries []ConfigEntry
	for _, line := range strings.Split(out, "\n") {
		scopeLabel, rest, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		key, value := splitKeyValue(rest)
		entries = append(entries, ConfigEntry{Key: key, Value: value, Scope: scopeLabel})
	}
	return entries, nil
}

// ReadConfigFile lists entries from a file in git-config syntax. A missing
// file yields no entries; a malformed file is an error.
func ReadConfigFile(ctx context.Context, file, pattern string) ([]ConfigEntry, error) {
	logger.Debug("Reading config file %s", file)

	out, err := run(ctx, "", "config", "--file", file, "--get-regexp", pattern)
	if err != nil {
		if ExitCode(err) == 1 {
			return nil, nil
		}
		return nil, err
	}

	var entries []ConfigEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		key, value := splitKeyValue(line)
		entries = append(entries, ConfigEntry{Key: key, Value: value, Scope: "file"})
	}
	return entries, nil
}

// GetConfigAll returns every value of key in the given scope.
func GetConfigAll(ctx context.Context, dir string, scope Scope, key string) ([]string, error) {
	args := append([]string{"config"}, scopeArgs(scope)...)
	args = append(args, "--get-all", key)

	out, err := run(ctx, dir, args...)
	if err != nil {
		if ExitCode(err) == 1 {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return strings.Split(out, "\n"), nil
}

// SetConfig sets key to value, replacing every existing value
func SetConfig(ctx context.Context, dir string, scope Scope, key, value string) error {
	logger.Debug("Setting git config: %s=%s (scope=%s)", key, value, displayScope(scope))

	args := append([]string{"config"}, scopeArgs(scope)...)
	args = append(args, "--replace-all", key, value)
	_, err := run(ctx, dir, args...)
	return err
}

// AddConfig adds a value to a multi-value config key
func AddConfig(ctx context.Context, dir string, scope Scope, key, value string) error {
	logger.Debug("Adding git config: %s=%s (scope=%s)", key, value, displayScope(scope))

	args := append([]string{"config"}, scopeArgs(scope)...)
	args = append(args, "--add", key, value)
	_, err := run(ctx, dir, args...)
	return err
}

// UnsetConfig removes a config key and all its values
func UnsetConfig(ctx context.Context, dir string, scope Scope, key string) error {
	logger.Debug("Unsetting git config: %s (scope=%s)", key, displayScope(scope))

	args := append([]string{"config"}, scopeArgs(scope)...)
	args = append(args, "--unset-all", key)
	if _, err := run(ctx, dir, args...); err != nil {
		if ExitCode(err) == 5 {
			return ErrConfigNotFound
		}
		return err
	}
	return nil
}

func splitKeyValue(line string) (string, string) {
	key, value, _ := strings.Cut(line, " ")
	return key, value
}

func displayScope(scope Scope) string {
	if scope == ScopeAuto {
		return "auto"
	}
	return string(scope)
}
