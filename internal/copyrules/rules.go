// Package copyrules decides which files from a source tree are copied into a
// space. Rules are evaluated in order and the last matching rule wins.
package copyrules

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sqve/spaces/internal/errors"
)

// Rule sources, in the order Compile appends them.
const (
	SourceInclude     = "spaces.copy.include"
	SourceIncludeDirs = "spaces.copy.includeDirs"
	SourceExclude     = "spaces.copy.exclude"
	SourceExcludeDirs = "spaces.copy.excludeDirs"
)

// Rule is one compiled pattern.
type Rule struct {
	Pattern string // normalized, without "!" and trailing "/"
	Include bool
	Dir     bool // matches ancestor directories instead of the file itself
	Source  string
}

// RuleSet is an ordered list of rules.
type RuleSet []Rule

// Config holds the pattern lists from configuration.
type Config struct {
	Include     []string
	Exclude     []string
	IncludeDirs []string
	ExcludeDirs []string

	// IgnorePatternFiles drops .worktreeinclude and .spacesinclude from Compile.
	IgnorePatternFiles bool
}

// NewRule parses raw into a rule. A leading "!" turns the rule into an
// include regardless of include. A trailing "/" marks a directory rule.
func NewRule(raw string, include, dir bool, source string) (Rule, error) {
	pattern := strings.TrimSpace(raw)
	if negated, ok := strings.CutPrefix(pattern, "!"); ok {
		pattern = negated
		include = true
	}
	if trimmed, ok := strings.CutSuffix(pattern, "/"); ok {
		pattern = trimmed
		dir = true
	}
	pattern = strings.TrimPrefix(pattern, "./")

	if err := validate(raw, pattern); err != nil {
		return Rule{}, err
	}

	return Rule{Pattern: pattern, Include: include, Dir: dir, Source: source}, nil
}

// ValidatePattern reports whether raw is a usable copy pattern.
func ValidatePattern(raw string) error {
	_, err := NewRule(raw, true, false, "")
	return err
}

func validate(raw, pattern string) error {
	if pattern == "" {
		return errors.ErrCopyPattern(raw, "empty pattern")
	}
	if strings.HasPrefix(pattern, "/") || strings.HasPrefix(pattern, `\`) || (len(pattern) > 1 && pattern[1] == ':') {
		return errors.ErrCopyPattern(raw, "absolute paths are not allowed")
	}
	for _, segment := range strings.Split(pattern, "/") {
		if segment == ".." {
			return errors.ErrCopyPattern(raw, "parent directory segments are not allowed")
		}
	}
	if !doublestar.ValidatePattern(pattern) {
		return errors.ErrCopyPattern(raw, "invalid glob syntax")
	}
	return nil
}

// CompileConfig turns configuration lists into rules in source order:
// include, includeDirs, exclude, excludeDirs.
func CompileConfig(cfg Config) (RuleSet, error) {
	groups := []struct {
		patterns []string
		include  bool
		dir      bool
		source   string
	}{
		{cfg.Include, true, false, SourceInclude},
		{cfg.IncludeDirs, true, true, SourceIncludeDirs},
		{cfg.Exclude, false, false, SourceExclude},
		{cfg.ExcludeDirs, false, true, SourceExcludeDirs},
	}

	var rules RuleSet
	for _, g := range groups {
		for _, raw := range g.patterns {
			rule, err := NewRule(raw, g.include, g.dir, g.source)
			if err != nil {
				return nil, errors.WithContext(err, "source", g.source)
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

// HasInclude reports whether any rule includes. It decides the default
// polarity of Plan.
func (rs RuleSet) HasInclude() bool {
	for _, r := range rs {
		if r.Include {
			return true
		}
	}
	return false
}

// Matches reports whether the rule applies to the slash separated relative
// path rel.
func (r Rule) Matches(rel string) bool {
	if r.Dir {
		for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if r.matchPath(dir) {
				return true
			}
		}
		return false
	}
	return r.matchPath(rel)
}

func (r Rule) matchPath(p string) bool {
	if !strings.Contains(r.Pattern, "/") {
		if ok, _ := doublestar.Match(r.Pattern, path.Base(p)); ok {
			return true
		}
	}
	ok, _ := doublestar.Match(r.Pattern, p)
	return ok
}

func (r Rule) String() string {
	s := r.Pattern
	if r.Dir {
		s += "/"
	}
	if r.Include {
		return "+" + s
	}
	return "-" + s
}
